package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	merchantapp "github.com/kvikk/backend/internal/application/merchant"
	shippingapp "github.com/kvikk/backend/internal/application/shipping"
	"github.com/kvikk/backend/internal/domain/shared"
	"github.com/kvikk/backend/internal/infrastructure/auth"
	"github.com/kvikk/backend/internal/infrastructure/cache"
	"github.com/kvikk/backend/internal/infrastructure/carrier"
	"github.com/kvikk/backend/internal/infrastructure/config"
	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/infrastructure/migration"
	"github.com/kvikk/backend/internal/infrastructure/persistence"
	"github.com/kvikk/backend/internal/infrastructure/secrets"
	"github.com/kvikk/backend/internal/infrastructure/shopify"
	"github.com/kvikk/backend/internal/infrastructure/telemetry"
	"github.com/kvikk/backend/internal/interfaces/http/handler"
	"github.com/kvikk/backend/internal/interfaces/http/middleware"
	"github.com/kvikk/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	tel, err := telemetry.Setup(context.Background(), cfg.Telemetry, version, logger.ParseLevel(cfg.Log.Level), baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := tel.Logger
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Kvikk Shopify service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database handle", zap.Error(err))
	}
	if cfg.Database.Driver == config.DriverPostgres {
		if err := prepareSchema(sqlDB, cfg.Database.MigrateOnStart, log); err != nil {
			log.Fatal("Database schema is not usable", zap.Error(err))
		}
	}
	if err := tel.InstrumentDB(context.Background(), db.DB, cfg.Database.Driver); err != nil {
		log.Warn("Database instrumentation disabled", zap.Error(err))
	}

	// Repositories
	cipher, err := secrets.NewCipher(cfg.Security.SettingsEncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize settings cipher", zap.Error(err))
	}
	settingsRepo := persistence.NewGormMerchantSettingsRepository(db.DB, cipher)
	recordRepo := persistence.NewGormShipmentRecordRepository(db.DB)

	// Outbound adapters
	kvikk, err := carrier.NewKvikkAdapter(&carrier.KvikkConfig{
		APIBaseURL:     cfg.Carrier.APIBaseURL,
		TimeoutSeconds: cfg.Carrier.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize Kvikk client", zap.Error(err))
	}
	storefront, err := shopify.NewShopifyAdapter(&shopify.ShopifyConfig{
		APIKey:         cfg.Shopify.APIKey,
		APISecret:      cfg.Shopify.APISecret,
		APIVersion:     cfg.Shopify.APIVersion,
		AdminBaseURL:   cfg.Shopify.AdminBaseURL,
		TimeoutSeconds: cfg.Shopify.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize Shopify client", zap.Error(err))
	}
	sessions, err := auth.NewSessionTokenVerifier(cfg.Shopify)
	if err != nil {
		log.Fatal("Failed to initialize session token verifier", zap.Error(err))
	}

	idempotency, err := newIdempotencyStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	if idempotency != nil {
		defer func() {
			if err := idempotency.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
	}

	// Application services
	rateService := shippingapp.NewRateService(shippingapp.RateServiceConfig{
		Carrier:        kvikk,
		SettingsRepo:   settingsRepo,
		FallbackAPIKey: cfg.Carrier.APIKey,
		Metrics:        tel.Shipping,
		Logger:         log,
	})
	shipmentService := shippingapp.NewShipmentService(shippingapp.ShipmentServiceConfig{
		Carrier:        kvikk,
		Tracking:       storefront,
		Records:        recordRepo,
		SettingsRepo:   settingsRepo,
		FallbackAPIKey: cfg.Carrier.APIKey,
		Metrics:        tel.Shipping,
		Logger:         log,
	})
	dispatcher := shippingapp.NewWebhookDispatcher(shippingapp.WebhookDispatcherConfig{
		Shipments:    shipmentService,
		SettingsRepo: settingsRepo,
		Idempotency:  idempotency,
		TTL:          cfg.Idempotency.TTL,
		Metrics:      tel.Shipping,
		Logger:       log,
	})
	settingsService := merchantapp.NewSettingsService(merchantapp.SettingsServiceConfig{
		Repo:           settingsRepo,
		Records:        recordRepo,
		Carrier:        kvikk,
		FallbackAPIKey: cfg.Carrier.APIKey,
		Logger:         log,
	})
	installService := merchantapp.NewInstallService(merchantapp.InstallServiceConfig{
		Installer:   storefront,
		Repo:        settingsRepo,
		CallbackURL: cfg.App.RatesCallbackURL(),
		Logger:      log,
	})

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	rateLimiter := applyMiddleware(engine, cfg, tel, log)
	if rateLimiter != nil {
		defer rateLimiter.Stop()
	}

	router.Mount(engine, router.Handlers{
		System:   handler.NewSystemHandler(sqlDB, cfg.App.Name, version),
		Shipping: handler.NewShippingHandler(rateService, dispatcher),
		Admin:    handler.NewAdminHandler(settingsService, installService),
	}, router.Guards{
		Storefront: middleware.ShopifyWebhook(middleware.WebhookConfig{
			Secret: cfg.Shopify.APISecret,
			Verify: cfg.Shopify.VerifyWebhooks,
			Logger: log,
		}),
		Session: middleware.SessionAuth(middleware.SessionAuthConfig{
			Verifier: sessions,
			Logger:   log,
		}),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("rates_callback", cfg.App.RatesCallbackURL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tel.Shutdown(ctx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// applyMiddleware installs the global middleware stack in order:
//  1. RequestID - Generate/propagate request ID
//  2. Recovery - Catch panics
//  3. Logger - Log requests
//  4. Security - Add security headers
//  5. CORS - Handle cross-origin requests
//  6. BodyLimit - Limit request body size
//  7. RateLimit - Per shop rate limiting (if enabled)
//  8. Tracing, metrics and profiling labels
//
// The returned limiter is nil when rate limiting is disabled.
func applyMiddleware(engine *gin.Engine, cfg *config.Config, tel *telemetry.Telemetry, log *zap.Logger) *middleware.RateLimiter {
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddlewareWithConfig(log, logger.GinConfig{SkipPaths: []string{"/health"}}))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: tel.Meter,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = cfg.Telemetry.ProfilingEnabled
	engine.Use(middleware.ProfilingWithConfig(profiling))

	return limiter
}

// newIdempotencyStore returns nil when the duplicate-shipment guard is disabled.
// Production refuses to fall back to the in-memory store.
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Idempotency.Enabled {
		log.Info("Idempotency guard disabled")
		return nil, nil
	}
	factory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	return factory.CreateStore(cfg.Idempotency.Backend)
}

// prepareSchema applies the embedded migrations when migrate is set, then
// refuses a dirty schema or one newer than this binary. The migrator shares
// db and must not be closed.
func prepareSchema(db *sql.DB, migrate bool, log *zap.Logger) error {
	m, err := migration.NewEmbedded(db, log)
	if err != nil {
		return err
	}
	if migrate {
		if err := m.Up(); err != nil {
			return err
		}
	}
	pending, err := m.Check()
	if err != nil {
		return err
	}
	if pending > 0 {
		log.Warn("Database schema is behind; run the migrate tool",
			zap.Uint("pending", pending),
			zap.Uint("latest", m.Latest()),
		)
	}
	return nil
}
