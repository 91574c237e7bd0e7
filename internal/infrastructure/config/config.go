package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sync      SyncConfig
	Platforms PlatformsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT verification settings for the API layer
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	TrustedProxies    []string
}

// SyncConfig holds the sync pipeline configuration
type SyncConfig struct {
	// Enabled turns the scheduler on
	Enabled bool
	// Workers is the worker pool size
	Workers int
	// JobTimeout is the hard wall-clock limit per job
	JobTimeout time.Duration
	// JobSoftTimeout triggers cooperative wind-down between pages
	JobSoftTimeout time.Duration
	// RetryAttempts bounds fetch retries per job
	RetryAttempts int
	// RetryBaseDelay is the base for exponential backoff
	RetryBaseDelay time.Duration
	// LeaseTTL bounds how long a crashed worker can hold a platform lease
	LeaseTTL time.Duration
	// Retention is how long terminal job rows are kept
	Retention time.Duration
	// Cron schedules, staggered per platform to spread vendor API load
	EbayCron    string
	EtsyCron    string
	RedditCron  string
	CleanupCron string
	// DefaultKeywords seeds scheduled syncs
	DefaultKeywords string
	// DefaultLimit bounds scheduled syncs
	DefaultLimit int
}

// PlatformsConfig holds vendor API credentials
type PlatformsConfig struct {
	Ebay   EbayConfig
	Etsy   EtsyConfig
	Reddit RedditConfig
}

// EbayConfig holds eBay OAuth client credentials
type EbayConfig struct {
	ClientID     string
	ClientSecret string
	Environment  string // sandbox or production
	BaseURL      string
	AuthURL      string
	Timeout      time.Duration
}

// EtsyConfig holds the Etsy v3 API key
type EtsyConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// RedditConfig holds Reddit script-app credentials
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	BaseURL      string
	AuthURL      string
	Subreddits   []string
	Timeout      time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with INDIGO_ prefix (e.g., INDIGO_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("INDIGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Sync: SyncConfig{
			Enabled:         v.GetBool("sync.enabled"),
			Workers:         v.GetInt("sync.workers"),
			JobTimeout:      v.GetDuration("sync.job_timeout"),
			JobSoftTimeout:  v.GetDuration("sync.job_soft_timeout"),
			RetryAttempts:   v.GetInt("sync.retry_attempts"),
			RetryBaseDelay:  v.GetDuration("sync.retry_base_delay"),
			LeaseTTL:        v.GetDuration("sync.lease_ttl"),
			Retention:       v.GetDuration("sync.retention"),
			EbayCron:        v.GetString("sync.ebay_cron"),
			EtsyCron:        v.GetString("sync.etsy_cron"),
			RedditCron:      v.GetString("sync.reddit_cron"),
			CleanupCron:     v.GetString("sync.cleanup_cron"),
			DefaultKeywords: v.GetString("sync.default_keywords"),
			DefaultLimit:    v.GetInt("sync.default_limit"),
		},
		Platforms: PlatformsConfig{
			Ebay: EbayConfig{
				ClientID:     v.GetString("ebay.client_id"),
				ClientSecret: v.GetString("ebay.client_secret"),
				Environment:  v.GetString("ebay.environment"),
				BaseURL:      v.GetString("ebay.base_url"),
				AuthURL:      v.GetString("ebay.auth_url"),
				Timeout:      v.GetDuration("ebay.timeout"),
			},
			Etsy: EtsyConfig{
				APIKey:  v.GetString("etsy.api_key"),
				BaseURL: v.GetString("etsy.base_url"),
				Timeout: v.GetDuration("etsy.timeout"),
			},
			Reddit: RedditConfig{
				ClientID:     v.GetString("reddit.client_id"),
				ClientSecret: v.GetString("reddit.client_secret"),
				UserAgent:    v.GetString("reddit.user_agent"),
				BaseURL:      v.GetString("reddit.base_url"),
				AuthURL:      v.GetString("reddit.auth_url"),
				Subreddits:   v.GetStringSlice("reddit.subreddits"),
				Timeout:      v.GetDuration("reddit.timeout"),
			},
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "fadedindigo-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "fadedindigo"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "fadedindigo-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, the API has no upload surface
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Sync.Workers == 0 {
		cfg.Sync.Workers = 3
	}
	if cfg.Sync.JobTimeout == 0 {
		cfg.Sync.JobTimeout = 10 * time.Minute
	}
	if cfg.Sync.JobSoftTimeout == 0 {
		cfg.Sync.JobSoftTimeout = 9 * time.Minute
	}
	if cfg.Sync.RetryAttempts == 0 {
		cfg.Sync.RetryAttempts = 3
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = time.Minute
	}
	if cfg.Sync.LeaseTTL == 0 {
		cfg.Sync.LeaseTTL = 15 * time.Minute
	}
	if cfg.Sync.Retention == 0 {
		cfg.Sync.Retention = 30 * 24 * time.Hour
	}
	// Staggered offsets keep the platforms from hitting vendor APIs at
	// the same instant.
	if cfg.Sync.EbayCron == "" {
		cfg.Sync.EbayCron = "0 */6 * * *"
	}
	if cfg.Sync.EtsyCron == "" {
		cfg.Sync.EtsyCron = "0 2-23/6 * * *"
	}
	if cfg.Sync.RedditCron == "" {
		cfg.Sync.RedditCron = "0 4-23/6 * * *"
	}
	if cfg.Sync.CleanupCron == "" {
		cfg.Sync.CleanupCron = "0 3 * * *"
	}
	if cfg.Sync.DefaultKeywords == "" {
		cfg.Sync.DefaultKeywords = "vintage jeans"
	}
	if cfg.Sync.DefaultLimit == 0 {
		cfg.Sync.DefaultLimit = 100
	}
	if cfg.Platforms.Ebay.Environment == "" {
		cfg.Platforms.Ebay.Environment = "sandbox"
	}
	if cfg.Platforms.Ebay.BaseURL == "" {
		if cfg.Platforms.Ebay.Environment == "production" {
			cfg.Platforms.Ebay.BaseURL = "https://api.ebay.com"
		} else {
			cfg.Platforms.Ebay.BaseURL = "https://api.sandbox.ebay.com"
		}
	}
	if cfg.Platforms.Ebay.AuthURL == "" {
		cfg.Platforms.Ebay.AuthURL = cfg.Platforms.Ebay.BaseURL + "/identity/v1/oauth2/token"
	}
	if cfg.Platforms.Ebay.Timeout == 0 {
		cfg.Platforms.Ebay.Timeout = 30 * time.Second
	}
	if cfg.Platforms.Etsy.BaseURL == "" {
		cfg.Platforms.Etsy.BaseURL = "https://openapi.etsy.com/v3"
	}
	if cfg.Platforms.Etsy.Timeout == 0 {
		cfg.Platforms.Etsy.Timeout = 30 * time.Second
	}
	if cfg.Platforms.Reddit.BaseURL == "" {
		cfg.Platforms.Reddit.BaseURL = "https://oauth.reddit.com"
	}
	if cfg.Platforms.Reddit.AuthURL == "" {
		cfg.Platforms.Reddit.AuthURL = "https://www.reddit.com/api/v1/access_token"
	}
	if cfg.Platforms.Reddit.UserAgent == "" {
		cfg.Platforms.Reddit.UserAgent = "fadedindigo/1.0"
	}
	if len(cfg.Platforms.Reddit.Subreddits) == 0 {
		cfg.Platforms.Reddit.Subreddits = []string{"rawdenim", "vintagefashion", "ThriftStoreHauls"}
	}
	if cfg.Platforms.Reddit.Timeout == 0 {
		cfg.Platforms.Reddit.Timeout = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync.workers must be positive")
	}
	if c.Sync.JobSoftTimeout > c.Sync.JobTimeout {
		return fmt.Errorf("sync.job_soft_timeout (%s) cannot exceed sync.job_timeout (%s)",
			c.Sync.JobSoftTimeout, c.Sync.JobTimeout)
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("sync.retry_attempts cannot be negative")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
