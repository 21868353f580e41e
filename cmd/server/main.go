package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	availabilityapp "github.com/bundlecheck/backend/internal/application/availability"
	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/domain/catalog"
	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/infrastructure/auth"
	"github.com/bundlecheck/backend/internal/infrastructure/cache"
	"github.com/bundlecheck/backend/internal/infrastructure/config"
	"github.com/bundlecheck/backend/internal/infrastructure/logger"
	"github.com/bundlecheck/backend/internal/infrastructure/persistence"
	"github.com/bundlecheck/backend/internal/infrastructure/shopify"
	"github.com/bundlecheck/backend/internal/infrastructure/telemetry"
	"github.com/bundlecheck/backend/internal/interfaces/http/handler"
	"github.com/bundlecheck/backend/internal/interfaces/http/middleware"
	"github.com/bundlecheck/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BundleCheck Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize OpenTelemetry providers. Each returns a no-op provider when
	// telemetry is disabled, so downstream wiring is unconditional.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Bridge zap to the OTLP log exporter so application logs carry trace
	// context to the collector alongside the local output.
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          zapcore.InfoLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
		log.Info("OTLP log bridge enabled")
	}

	checkMetrics, err := telemetry.NewCheckMetrics(telemetry.CheckMetricsConfig{
		Meter:  meterProvider.Meter("bundlecheck"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize check metrics", zap.Error(err))
	}

	// Database is optional: availability checks never touch it, only the
	// check log audit trail does.
	var db *persistence.Database
	if cfg.Database.Enabled {
		gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
		gormLog := logger.NewGormLogger(log, gormLogLevel)

		db, err = persistence.NewDatabaseWithGormLogger(&cfg.Database, gormLog)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		log.Info("Database connected, check log audit trail enabled")

		if cfg.Telemetry.DBTraceEnabled {
			tracingCfg := telemetry.DefaultDBTracingConfig()
			tracingCfg.Enabled = true
			dbTracing := telemetry.NewDBTracingPlugin(tracingCfg, log)
			if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
				log.Warn("Failed to register database tracing", zap.Error(err))
			}
		}

		if meterProvider.IsEnabled() {
			dbMetrics, err := telemetry.NewDBMetricsPlugin(meterProvider.Meter("bundlecheck"), telemetry.DBMetricsConfig{}, log)
			if err != nil {
				log.Warn("Failed to build database metrics", zap.Error(err))
			} else if err := db.DB.Use(dbMetrics); err != nil {
				log.Warn("Failed to register database metrics", zap.Error(err))
			} else {
				defer dbMetrics.Stop()
			}
		}
	} else {
		log.Info("Database disabled, check log audit trail unavailable")
	}

	// Bundle catalog: built-in products plus config overrides
	cat := catalog.Default()
	if len(cfg.Catalog.Products) > 0 {
		overrides := make(map[string]catalog.ProductEntry, len(cfg.Catalog.Products))
		for handle, entry := range cfg.Catalog.Products {
			overrides[handle] = catalog.ProductEntry{
				Options: entry.Options,
				SKUs:    entry.SKUs,
			}
		}
		cat.Merge(overrides)
		log.Info("Catalog overrides applied", zap.Int("products", len(overrides)))
	}

	// Shopify Admin API client, instrumented for upstream call metrics
	shopifyConfig := shopify.NewConfig(cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken)
	shopifyConfig.APIVersion = cfg.Shopify.APIVersion
	shopifyConfig.PageSize = cfg.Shopify.PageSize
	shopifyConfig.TimeoutSeconds = cfg.Shopify.TimeoutSeconds
	shopifyConfig.MaxRetries = cfg.Shopify.MaxRetries

	shopifyClient, err := shopify.NewClient(shopifyConfig)
	if err != nil {
		log.Fatal("Failed to configure Shopify client", zap.Error(err))
	}
	var platform commerce.Platform = shopify.NewInstrumentedPlatform(shopifyClient, checkMetrics)

	// Variant cache: Redis with optional in-memory fallback, instrumented
	// for hit/miss metrics
	cacheFactory := cache.NewVariantCacheFactory(cfg.Redis, cfg.Cache.VariantTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Cache.AllowMemoryFallback),
	)
	var variantCache availability.VariantCache
	if cfg.Cache.Backend == "memory" {
		variantCache = cacheFactory.CreateInMemoryCache()
	} else {
		variantCache, err = cacheFactory.CreateCache()
		if err != nil {
			log.Fatal("Failed to create variant cache", zap.Error(err))
		}
	}
	variantCache = cache.NewInstrumentedVariantCache(variantCache, checkMetrics, cfg.Cache.Backend)

	resolver := availability.NewVariantResolver(platform, variantCache)
	resolver.SetScanObserver(checkMetrics.RecordScanPages)

	// Application services
	checkService := availabilityapp.NewCheckService(cat, resolver, platform)
	checkService.SetMetrics(checkMetrics)
	if db != nil {
		checkService.SetCheckLogRepository(persistence.NewGormCheckLogRepository(db.DB))
	}

	// HTTP handlers
	availabilityHandler := handler.NewAvailabilityHandler(checkService)
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
	// 5. CORS - Handle cross-origin requests from storefronts
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. Tracing/Metrics - OpenTelemetry instrumentation
	// 9. Auth - Verify session tokens (or pin a static shop domain)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
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

	// OpenTelemetry request instrumentation
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       meterProvider.IsEnabled(),
	}))

	// Shop identity: verified Shopify session tokens when enabled, otherwise
	// every request is pinned to the configured shop.
	if cfg.Auth.SessionTokenEnabled {
		tokenService := auth.NewSessionTokenService(cfg.Auth)
		engine.Use(middleware.SessionTokenAuthMiddlewareWithConfig(middleware.SessionTokenMiddlewareConfig{
			TokenService: tokenService,
			SkipPaths: []string{
				"/health",
				"/api/v1/ping",
				"/api/v1/system/ping",
				"/api/v1/system/info",
			},
			Logger: log,
		}))
		log.Info("Session token authentication enabled")
	} else {
		engine.Use(middleware.StaticShopDomain(cfg.Shopify.ShopDomain))
		log.Warn("Session token authentication disabled, requests pinned to configured shop",
			zap.String("shop_domain", cfg.Shopify.ShopDomain),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Availability domain
	availabilityRoutes := router.NewDomainGroup("availability", "/availability")
	availabilityRoutes.POST("/check", availabilityHandler.CheckBundle)
	availabilityRoutes.GET("/checks", availabilityHandler.ListChecks)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(availabilityRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints. The service is
// healthy without a database; when the audit trail is enabled a failing
// database degrades the report but does not take checks down with it.
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if db == nil {
			status["database"] = "disabled"
			c.JSON(http.StatusOK, status)
			return
		}

		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check: database unreachable", zap.Error(err))
			status["status"] = "degraded"
			status["database"] = "error"
			c.JSON(http.StatusOK, status)
			return
		}
		status["database"] = "ok"
		if stats, err := db.Stats(); err == nil {
			status["database_pool"] = gin.H{
				"open":   stats.OpenConnections,
				"in_use": stats.InUse,
				"idle":   stats.Idle,
			}
		}
		c.JSON(http.StatusOK, status)
	}
}
