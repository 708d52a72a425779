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

	"github.com/erp/vatchallan/internal/application/invoicing"
	"github.com/erp/vatchallan/internal/application/masterdata"
	"github.com/erp/vatchallan/internal/application/registration"
	"github.com/erp/vatchallan/internal/application/report"
	"github.com/erp/vatchallan/internal/application/vendorconfig"
	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/infrastructure/authority"
	"github.com/erp/vatchallan/internal/infrastructure/cache"
	"github.com/erp/vatchallan/internal/infrastructure/config"
	"github.com/erp/vatchallan/internal/infrastructure/logger"
	"github.com/erp/vatchallan/internal/infrastructure/persistence"
	"github.com/erp/vatchallan/internal/infrastructure/scheduler"
	"github.com/erp/vatchallan/internal/infrastructure/storage"
	"github.com/erp/vatchallan/internal/infrastructure/telemetry"
	"github.com/erp/vatchallan/internal/interfaces/http/handler"
	"github.com/erp/vatchallan/internal/interfaces/http/middleware"
	"github.com/erp/vatchallan/internal/interfaces/http/router"
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

	log.Info("Starting VAT challan service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Reference-data listing cache: Redis when enabled, in-process otherwise
	var refCache masterdata.ReferenceCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisReferenceCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		refCache = redisCache
		log.Info("Redis reference cache enabled",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		refCache = cache.NewMemoryReferenceCache()
	}

	// Object storage for retailer documents and downloaded schallans
	var store challan.ObjectStore
	if cfg.Storage.Backend == "s3" {
		store, err = storage.NewS3ObjectStore(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		log.Info("S3 object storage enabled",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("endpoint", cfg.Storage.Endpoint),
		)
	} else {
		store, err = storage.NewLocalObjectStore(cfg.Storage.LocalDir, "")
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
	}

	// Initialize repositories
	configRepo := persistence.NewGormVendorConfigRepository(db.DB)
	referenceRepo := persistence.NewGormReferenceRepository(db.DB)
	registrationRepo := persistence.NewGormRegistrationRepository(db.DB)
	invoiceRepo := persistence.NewGormVATInvoiceRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)

	// Outbound authority client
	gateway := authority.NewClient(configRepo, authority.WithLogger(log))

	// Initialize application services
	syncService := masterdata.NewSyncService(gateway, referenceRepo, refCache, log)
	listingService := masterdata.NewListingService(referenceRepo, refCache, log)
	vendorConfigService := vendorconfig.NewService(configRepo, gateway, log)
	registrationService := registration.NewService(gateway, registrationRepo, referenceRepo, store, log)
	invoicingService := invoicing.NewService(gateway, invoiceRepo, registrationRepo, referenceRepo, store, log)
	reportService := report.NewService(reportRepo, invoiceRepo, referenceRepo, log)

	// Background sync scheduler (if enabled)
	if cfg.Sync.Enabled {
		syncScheduler := scheduler.NewSyncScheduler(scheduler.Config{
			Enabled:            cfg.Sync.Enabled,
			MasterDataInterval: cfg.Sync.MasterDataInterval,
			AutoSyncInterval:   cfg.Sync.AutoSyncInterval,
			JobTimeout:         cfg.Sync.JobTimeout,
		}, syncService, invoicingService, log)
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	handlers := router.Handlers{
		System:       handler.NewSystemHandler(db.DB),
		MasterData:   handler.NewMasterDataHandler(syncService, listingService),
		VendorConfig: handler.NewVendorConfigHandler(vendorConfigService),
		Registration: handler.NewRegistrationHandler(registrationService),
		Invoice:      handler.NewInvoiceHandler(invoicingService),
		Report:       handler.NewReportHandler(reportService),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

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
	// 7. Tracing - Record spans per request
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAll(r, handlers)
	r.Setup()

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
