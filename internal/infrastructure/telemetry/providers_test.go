package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOn")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOff")
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestStartSpanAndRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, span := StartSpan(context.Background(), "storefront.refresh")
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, errors.New("HTTP error! status: 404"))
	span.End()

	_, okSpan := StartSpan(context.Background(), "storefront.submit_order")
	RecordError(okSpan, nil)
	okSpan.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "storefront.refresh", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)

	assert.Empty(t, GetTraceID(context.Background()))
}
