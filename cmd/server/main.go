package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appmarketplace "github.com/fadedindigo/backend/internal/application/marketplace"
	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/infrastructure/auth"
	"github.com/fadedindigo/backend/internal/infrastructure/cache"
	"github.com/fadedindigo/backend/internal/infrastructure/config"
	"github.com/fadedindigo/backend/internal/infrastructure/ecommerce"
	"github.com/fadedindigo/backend/internal/infrastructure/logger"
	"github.com/fadedindigo/backend/internal/infrastructure/persistence"
	"github.com/fadedindigo/backend/internal/infrastructure/scheduler"
	"github.com/fadedindigo/backend/internal/interfaces/http/handler"
	"github.com/fadedindigo/backend/internal/interfaces/http/middleware"
	"github.com/fadedindigo/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database with GORM logging routed through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	listingRepo := persistence.NewGormListingRepository(db.DB)
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	leaseRepo := persistence.NewGormSyncLeaseRepository(db.DB)
	trendRepo := persistence.NewGormTrendRepository(db.DB)

	// Marketplace adapters: platforms without credentials are skipped so a
	// partial deployment still serves the configured ones
	registry := buildRegistry(&cfg.Platforms, log)

	// Task cache: Redis when reachable, in-memory otherwise
	results, guard, err := cache.NewTaskCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize task cache", zap.Error(err))
	}
	defer results.Close()

	// Sync pipeline: executor -> worker pool scheduler -> cron trigger
	retryPolicy := scheduler.DefaultRetryPolicy()
	retryPolicy.MaxAttempts = cfg.Sync.RetryAttempts
	retryPolicy.BaseDelay = cfg.Sync.RetryBaseDelay

	executor := scheduler.NewSyncExecutor(registry, listingRepo, jobRepo, retryPolicy, cfg.Sync.JobSoftTimeout, log)

	schedulerCfg := scheduler.DefaultSyncSchedulerConfig()
	schedulerCfg.Workers = cfg.Sync.Workers
	schedulerCfg.JobTimeout = cfg.Sync.JobTimeout
	schedulerCfg.JobSoftTimeout = cfg.Sync.JobSoftTimeout
	schedulerCfg.LeaseTTL = cfg.Sync.LeaseTTL
	schedulerCfg.Retry = retryPolicy

	syncScheduler, err := scheduler.NewSyncScheduler(schedulerCfg, executor, jobRepo, leaseRepo, log)
	if err != nil {
		log.Fatal("Failed to build sync scheduler", zap.Error(err))
	}

	cronTrigger, err := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
		EbayCron:       cfg.Sync.EbayCron,
		EtsyCron:       cfg.Sync.EtsyCron,
		RedditCron:     cfg.Sync.RedditCron,
		CleanupCron:    cfg.Sync.CleanupCron,
		Keywords:       cfg.Sync.DefaultKeywords,
		Limit:          cfg.Sync.DefaultLimit,
		Retention:      cfg.Sync.Retention,
		StuckThreshold: 2 * cfg.Sync.JobTimeout,
	}, syncScheduler, jobRepo, log)
	if err != nil {
		log.Fatal("Failed to build cron trigger", zap.Error(err))
	}

	if cfg.Sync.Enabled {
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		if err := cronTrigger.Start(); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
	} else {
		log.Warn("Sync pipeline disabled, triggers will be rejected")
	}

	// Initialize application services
	syncService := appmarketplace.NewSyncService(syncScheduler, jobRepo, results, guard, cfg.Sync.DefaultKeywords, cfg.Sync.DefaultLimit)
	listingService := appmarketplace.NewListingQueryService(listingRepo)
	trendService := appmarketplace.NewTrendService(trendRepo)

	// Initialize JWT service for the write endpoints
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize handlers
	listingHandler := handler.NewListingHandler(listingService)
	syncHandler := handler.NewSyncHandler(syncService)
	trendHandler := handler.NewTrendHandler(trendService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/healthz", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	listingRoutes := router.NewDomainGroup("listings", "/listings")
	listingRoutes.
		GET("", listingHandler.List).
		GET("/:id", listingHandler.GetByID).
		GET("/search/:keywords", listingHandler.Search)

	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.
		POST("/trigger", middleware.RequireAuth(jwtService), syncHandler.Trigger).
		GET("/status/:task_id", syncHandler.Status)

	jobRoutes := router.NewDomainGroup("sync-jobs", "/sync-jobs")
	jobRoutes.
		GET("", syncHandler.List).
		GET("/:id", syncHandler.GetByID)

	trendRoutes := router.NewDomainGroup("trends", "/trends")
	trendRoutes.
		GET("/summary", trendHandler.Summary)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.
		GET("/info", systemHandler.GetSystemInfo).
		GET("/ping", systemHandler.Ping)

	r.Register(listingRoutes).
		Register(syncRoutes).
		Register(jobRoutes).
		Register(trendRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with timeouts from config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop accepting HTTP traffic first, then wind down the pipeline so
	// in-flight jobs can reach a terminal status
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	cronTrigger.Stop()
	if err := syncScheduler.Stop(ctx); err != nil {
		log.Error("Sync scheduler shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited")
}

// buildRegistry constructs the adapter registry from platform credentials.
// A platform with incomplete credentials is skipped with a warning rather
// than failing startup.
func buildRegistry(cfg *config.PlatformsConfig, log *zap.Logger) *ecommerce.Registry {
	var adapters []marketplace.Adapter

	if cfg.Ebay.ClientID != "" && cfg.Ebay.ClientSecret != "" {
		var ebayCfg *ecommerce.EbayConfig
		if cfg.Ebay.Environment == "production" {
			ebayCfg = ecommerce.NewEbayConfig(cfg.Ebay.ClientID, cfg.Ebay.ClientSecret)
		} else {
			ebayCfg = ecommerce.NewSandboxEbayConfig(cfg.Ebay.ClientID, cfg.Ebay.ClientSecret)
		}
		if cfg.Ebay.Timeout > 0 {
			ebayCfg.Timeout = cfg.Ebay.Timeout
		}
		if adapter, err := ecommerce.NewEbayAdapter(ebayCfg); err != nil {
			log.Warn("Skipping eBay adapter", zap.Error(err))
		} else {
			adapters = append(adapters, adapter)
		}
	} else {
		log.Warn("eBay credentials not configured, eBay sync disabled")
	}

	if cfg.Etsy.APIKey != "" {
		etsyCfg := ecommerce.NewEtsyConfig(cfg.Etsy.APIKey)
		if cfg.Etsy.BaseURL != "" {
			etsyCfg.BaseURL = cfg.Etsy.BaseURL
		}
		if cfg.Etsy.Timeout > 0 {
			etsyCfg.Timeout = cfg.Etsy.Timeout
		}
		if adapter, err := ecommerce.NewEtsyAdapter(etsyCfg); err != nil {
			log.Warn("Skipping Etsy adapter", zap.Error(err))
		} else {
			adapters = append(adapters, adapter)
		}
	} else {
		log.Warn("Etsy API key not configured, Etsy sync disabled")
	}

	if cfg.Reddit.ClientID != "" && cfg.Reddit.ClientSecret != "" {
		redditCfg := ecommerce.NewRedditConfig(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret, cfg.Reddit.UserAgent)
		if len(cfg.Reddit.Subreddits) > 0 {
			redditCfg.Subreddits = cfg.Reddit.Subreddits
		}
		if cfg.Reddit.Timeout > 0 {
			redditCfg.Timeout = cfg.Reddit.Timeout
		}
		if adapter, err := ecommerce.NewRedditAdapter(redditCfg); err != nil {
			log.Warn("Skipping Reddit adapter", zap.Error(err))
		} else {
			adapters = append(adapters, adapter)
		}
	} else {
		log.Warn("Reddit credentials not configured, Reddit sync disabled")
	}

	return ecommerce.NewRegistry(adapters...)
}

func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
