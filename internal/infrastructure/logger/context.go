package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores the HTTP request id so code below the handlers can tag
// its logs with it
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the id stored by WithRequestID, or ""
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTraceContext adds trace_id and span_id of the active span, if any
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// ForContext returns base tagged with the request id and trace of ctx
func ForContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if id := GetRequestID(ctx); id != "" {
		base = base.With(zap.String("request_id", id))
	}
	return WithTraceContext(ctx, base)
}
