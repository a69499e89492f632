package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EngineConfig holds what NewEngine needs to build the middleware stack
type EngineConfig struct {
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	ServiceName    string
	Tracing        bool
	TracerProvider trace.TracerProvider
	MeterProvider  *telemetry.MeterProvider
}

// NewEngine creates a gin engine with the standard middleware stack:
// request id, recovery, tracing, metrics, request logging, security
// headers, CORS and body limit.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName:    cfg.ServiceName,
		Enabled:        cfg.Tracing,
		TracerProvider: cfg.TracerProvider,
	}))
	engine.Use(middleware.SpanAttributes(), middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: cfg.MeterProvider,
		Logger:        log,
		Enabled:       cfg.MeterProvider != nil,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	engine.Use(middleware.CORSWithConfig(cors))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	return engine
}
