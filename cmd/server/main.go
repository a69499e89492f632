package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storefront/backend/internal/application/storefront"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/sheets"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Spreadsheet-backed storefront: catalog, cart, orders and order history

//	@host		localhost:8080
//	@BasePath	/api/v1

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
		_ = log.Sync()
	}()

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("history_backend", cfg.History.Backend),
	)

	ctx := context.Background()

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	metrics, err := telemetry.NewStorefrontMetrics(telemetry.StorefrontMetricsConfig{
		Meter:  meterProvider.Meter("storefront"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create storefront metrics", zap.Error(err))
	}

	// Order history storage
	backend, err := openHistoryBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open order history storage", zap.Error(err))
	}
	defer func() {
		if err := backend.close(); err != nil {
			log.Error("Error closing order history storage", zap.Error(err))
		}
	}()
	history := persistence.NewKVOrderHistoryRepository(backend.store, cfg.History.Key)

	// Remote spreadsheet endpoints
	client := sheets.NewClient(cfg.Storefront.HTTPTimeout,
		sheets.WithMaxBodySize(cfg.Storefront.MaxCatalogBytes),
		sheets.WithLogger(log),
	)

	controllerOpts := []storefront.Option{
		storefront.WithLogger(log),
		storefront.WithMetrics(metrics),
	}

	// Order events
	if cfg.Messaging.Enabled {
		publisher, err := event.Dial(cfg.Messaging, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Error closing RabbitMQ publisher", zap.Error(err))
			}
		}()
		controllerOpts = append(controllerOpts, storefront.WithPublisher(publisher))
	}

	controller := storefront.NewController(cfg.Storefront, client, client, history, controllerOpts...)

	handlerOpts := []handler.StorefrontHandlerOption{}

	// Background catalog refresh
	if cfg.Storefront.AutoRefresh {
		refresh, err := scheduler.NewCatalogRefreshScheduler(
			scheduler.Config{
				Interval: cfg.Storefront.RefreshInterval(),
				Timeout:  cfg.Storefront.HTTPTimeout,
			},
			controller,
			log,
			scheduler.WithObserver(metrics),
		)
		if err != nil {
			log.Fatal("Failed to create catalog refresh scheduler", zap.Error(err))
		}
		if err := refresh.Start(ctx); err != nil {
			log.Fatal("Failed to start catalog refresh scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := refresh.Stop(stopCtx); err != nil {
				log.Error("Error stopping catalog refresh scheduler", zap.Error(err))
			}
		}()
		handlerOpts = append(handlerOpts, handler.WithRefreshStatus(refresh))
	} else {
		log.Info("Automatic catalog refresh disabled; use POST /api/v1/catalog/refresh")
	}

	// HTTP
	engine := router.NewEngine(router.EngineConfig{
		Logger:        log,
		HTTP:          cfg.HTTP,
		ServiceName:   cfg.Telemetry.ServiceName,
		Tracing:       cfg.Telemetry.Enabled,
		MeterProvider: meterProvider,
	})

	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion)
	if backend.ping != nil {
		systemHandler.AddCheck("database", backend.ping)
	}
	engine.GET("/health", systemHandler.Health)

	router.NewRouter(engine).
		Register(handler.NewStorefrontHandler(controller, handlerOpts...)).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// historyBackend is the opened key-value store plus what main needs to
// probe and release it
type historyBackend struct {
	store shared.KeyValueStore
	ping  handler.HealthCheck
	close func() error
}

// openHistoryBackend opens the store selected by history.backend
func openHistoryBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*historyBackend, error) {
	switch cfg.History.Backend {
	case config.HistoryBackendMemory:
		log.Warn("Using in-memory order history; past orders are lost on restart")
		store := cache.NewInMemoryKeyValueStore()
		return &historyBackend{store: store, close: store.Close}, nil

	case config.HistoryBackendSQLite, config.HistoryBackendPostgres:
		opts := []persistence.DatabaseOption{
			persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)),
			persistence.WithTracing(cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled),
		}
		var (
			db  *persistence.Database
			err error
		)
		if cfg.History.Backend == config.HistoryBackendSQLite {
			db, err = persistence.OpenSQLite(cfg.History.SQLitePath, opts...)
		} else {
			db, err = persistence.OpenPostgres(&cfg.Database, opts...)
		}
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("Database connected successfully", zap.String("backend", cfg.History.Backend))
		return &historyBackend{
			store: persistence.NewGormKeyValueStore(db.DB),
			ping:  db.Ping,
			close: db.Close,
		}, nil

	case config.HistoryBackendRedis:
		store, err := cache.NewKeyValueStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
		if err != nil {
			return nil, err
		}
		return &historyBackend{store: store, close: store.Close}, nil

	case config.HistoryBackendS3:
		store, err := storage.NewS3KeyValueStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return &historyBackend{store: store, close: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported history backend %q", cfg.History.Backend)
	}
}
