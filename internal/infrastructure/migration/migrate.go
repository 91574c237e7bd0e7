package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies versioned SQL migrations from a directory against the
// marketplace database, wrapping golang-migrate.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New builds a Migrator on top of an open postgres connection.
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	mg.logger.Info("applying pending migrations")

	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("schema already up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	return mg.logCurrentVersion("migrations applied")
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	mg.logger.Info("rolling back all migrations")

	if err := mg.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("nothing to roll back")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}

	mg.logger.Info("all migrations rolled back")
	return nil
}

// Steps applies n migrations forward, or rolls back -n when negative.
func (mg *Migrator) Steps(n int) error {
	mg.logger.Info("stepping migrations", zap.Int("steps", n))

	if err := mg.m.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("schema already up to date")
			return nil
		}
		return fmt.Errorf("migrate steps: %w", err)
	}

	return mg.logCurrentVersion("migration steps applied")
}

// GoTo migrates the schema to an exact version, in either direction.
func (mg *Migrator) GoTo(version uint) error {
	mg.logger.Info("migrating to version", zap.Uint("target", version))

	if err := mg.m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("already at target version")
			return nil
		}
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}

	mg.logger.Info("reached target version", zap.Uint("version", version))
	return nil
}

// Version reports the current schema version and whether it is dirty.
// A database with no applied migrations reports version 0, clean.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running any SQL. It exists
// to recover from a dirty state after a failed migration.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn("forcing migration version", zap.Int("version", version))

	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop destroys every object in the connected database.
func (mg *Migrator) Drop() error {
	mg.logger.Warn("dropping database schema")

	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// Close releases the migration source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) logCurrentVersion(msg string) error {
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
