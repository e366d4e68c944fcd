package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	appbilling "github.com/vetpms/backend/internal/application/billing"
	appcatalog "github.com/vetpms/backend/internal/application/catalog"
	appinventory "github.com/vetpms/backend/internal/application/inventory"
	"github.com/vetpms/backend/internal/infrastructure/cache"
	"github.com/vetpms/backend/internal/infrastructure/config"
	"github.com/vetpms/backend/internal/infrastructure/logger"
	"github.com/vetpms/backend/internal/infrastructure/persistence"
	"github.com/vetpms/backend/internal/infrastructure/telemetry"
	"github.com/vetpms/backend/internal/interfaces/http/handler"
	"github.com/vetpms/backend/internal/interfaces/http/middleware"
	"github.com/vetpms/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	ctx := context.Background()
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	// Connect to the database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Product index cache (Redis, or in-memory when Redis is disabled)
	productIndex, err := cache.NewProductIndexFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to initialize product index", zap.Error(err))
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	reconciliationService := appinventory.NewReconciliationService(
		productRepo,
		batchRepo,
		movementRepo,
		txScope,
		appinventory.ShortfallPolicy(cfg.Reconciliation.ShortfallPolicy),
		log,
	)
	inventoryService := appinventory.NewInventoryService(productRepo, batchRepo, movementRepo, reconciliationService, log)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, reconciliationService, log)
	productService := appcatalog.NewProductService(productRepo, productIndex, log)

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("Failed to register request validators", zap.Error(err))
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if tracerProvider.IsEnabled() {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	engine.Use(middleware.Tenant())
	engine.Use(middleware.Staff())

	// Health endpoint lives outside the versioned API and skips tenant checks
	systemHandler := handler.NewSystemHandler(db)
	engine.GET("/health", systemHandler.Health)

	// Versioned API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(
			handler.NewProductHandler(productService),
			handler.NewInvoiceHandler(invoiceService),
			handler.NewInventoryHandler(inventoryService),
		).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down server", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}

	log.Info("Server stopped")
}
