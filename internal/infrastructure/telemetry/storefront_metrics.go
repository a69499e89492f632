package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metric attribute keys
const (
	AttrOutcome   = "outcome"
	AttrErrorKind = "error_kind"
	AttrAction    = "action"
)

// Outcome attribute values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StorefrontMetricsConfig holds the dependencies of StorefrontMetrics
type StorefrontMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// StorefrontMetrics records catalog refreshes, cart actions and orders.
// It satisfies the refresh scheduler's observer interface.
type StorefrontMetrics struct {
	refreshTotal    *Counter
	refreshSkipped  *Counter
	refreshDuration *Histogram
	catalogProducts *Gauge
	cartActions     *Counter
	ordersTotal     *Counter
	orderValue      *Histogram
	logger          *zap.Logger
}

// NewStorefrontMetrics creates every storefront instrument on cfg.Meter
func NewStorefrontMetrics(cfg StorefrontMetricsConfig) (*StorefrontMetrics, error) {
	if cfg.Meter == nil {
		return nil, errors.New("NewStorefrontMetrics: meter cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &StorefrontMetrics{logger: logger}
	var err error

	if m.refreshTotal, err = NewCounter(cfg.Meter,
		"storefront_catalog_refresh_total",
		"Catalog refresh attempts by outcome",
		"{refresh}",
	); err != nil {
		return nil, err
	}
	if m.refreshSkipped, err = NewCounter(cfg.Meter,
		"storefront_catalog_refresh_skipped_total",
		"Refresh triggers skipped because a fetch was in flight",
		"{refresh}",
	); err != nil {
		return nil, err
	}
	if m.refreshDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "storefront_catalog_refresh_duration_seconds",
		Description: "Catalog fetch and parse latency",
		Unit:        "s",
		Boundaries:  []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}); err != nil {
		return nil, err
	}
	if m.catalogProducts, err = NewGauge(cfg.Meter,
		"storefront_catalog_products",
		"Purchasable products in the current catalog",
		"{product}",
	); err != nil {
		return nil, err
	}
	if m.cartActions, err = NewCounter(cfg.Meter,
		"storefront_cart_actions_total",
		"Cart actions applied",
		"{action}",
	); err != nil {
		return nil, err
	}
	if m.ordersTotal, err = NewCounter(cfg.Meter,
		"storefront_orders_total",
		"Order submissions by outcome",
		"{order}",
	); err != nil {
		return nil, err
	}
	if m.orderValue, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "storefront_order_value",
		Description: "Total of accepted orders",
		Unit:        "{USD}",
		Boundaries:  []float64{5, 10, 25, 50, 100, 250, 500, 1000},
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// RefreshCompleted records a finished refresh
func (m *StorefrontMetrics) RefreshCompleted(ctx context.Context, duration time.Duration, err error) {
	attrs := outcomeAttrs(err)
	m.refreshTotal.Inc(ctx, attrs...)
	m.refreshDuration.RecordDuration(ctx, duration, attrs...)
}

// RefreshSkipped records a trigger dropped during a fetch
func (m *StorefrontMetrics) RefreshSkipped(ctx context.Context) {
	m.refreshSkipped.Inc(ctx)
}

// RecordCatalogSize records how many products the catalog holds
func (m *StorefrontMetrics) RecordCatalogSize(ctx context.Context, products int) {
	m.catalogProducts.Record(ctx, int64(products))
}

// RecordCartAction counts an applied cart action
func (m *StorefrontMetrics) RecordCartAction(ctx context.Context, action string) {
	m.cartActions.Inc(ctx, attribute.String(AttrAction, action))
}

// RecordOrder counts a submission and, when accepted, its total
func (m *StorefrontMetrics) RecordOrder(ctx context.Context, total float64, err error) {
	m.ordersTotal.Inc(ctx, outcomeAttrs(err)...)
	if err == nil {
		m.orderValue.Record(ctx, total)
	}
}

func outcomeAttrs(err error) []attribute.KeyValue {
	if err == nil {
		return []attribute.KeyValue{attribute.String(AttrOutcome, OutcomeSuccess)}
	}
	kind := shared.KindOf(err)
	if kind == "" {
		kind = "UNKNOWN"
	}
	return []attribute.KeyValue{
		attribute.String(AttrOutcome, OutcomeFailure),
		attribute.String(AttrErrorKind, strings.ToLower(kind)),
	}
}
