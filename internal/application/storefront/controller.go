package storefront

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/config"
	csvimport "github.com/storefront/backend/internal/infrastructure/import"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogSource downloads the raw catalog document
type CatalogSource interface {
	FetchCatalog(ctx context.Context, endpoint string) ([]byte, error)
}

// OrderSink delivers an order to the remote order handler
type OrderSink interface {
	SubmitOrder(ctx context.Context, endpoint string, payload order.Payload) error
}

// Metrics receives storefront measurements
type Metrics interface {
	RecordCatalogSize(ctx context.Context, products int)
	RecordCartAction(ctx context.Context, action string)
	RecordOrder(ctx context.Context, total float64, err error)
}

// SubmitResult describes an accepted order
type SubmitResult struct {
	OrderID string
	Total   valueobject.Money
	Items   []order.Item
	// Warning is set when the order was accepted remotely but a local
	// follow-up step (history) failed.
	Warning string
}

// Controller owns the single storefront State. All mutations go through
// Dispatch; network and storage I/O run outside the state lock.
type Controller struct {
	cfg       config.StorefrontConfig
	source    CatalogSource
	sink      OrderSink
	history   order.HistoryRepository
	publisher order.EventPublisher
	ids       *order.IDGenerator
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.RWMutex
	state      State
	refreshing atomic.Bool
	group      singleflight.Group
	submitMu   sync.Mutex
}

// Option configures a Controller
type Option func(*Controller)

// WithPublisher announces accepted orders through p
func WithPublisher(p order.EventPublisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// WithIDGenerator overrides order id generation
func WithIDGenerator(g *order.IDGenerator) Option {
	return func(c *Controller) {
		c.ids = g
	}
}

// WithMetrics records measurements to m
func WithMetrics(m Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithLogger sets the controller logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller with an empty catalog and cart
func NewController(
	cfg config.StorefrontConfig,
	source CatalogSource,
	sink OrderSink,
	history order.HistoryRepository,
	opts ...Option,
) *Controller {
	c := &Controller{
		cfg:       cfg,
		source:    source,
		sink:      sink,
		history:   history,
		publisher: order.NopEventPublisher{},
		logger:    zap.NewNop(),
		now:       time.Now,
		state:     NewState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ids == nil {
		c.ids = order.NewIDGenerator(order.WithClock(c.now))
	}
	return c
}

// Snapshot returns the current state. The returned value must not be mutated.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dispatch applies an action to the state and returns the new state.
// Cart actions naming a product outside the catalog fail with NOT_FOUND.
func (c *Controller) Dispatch(ctx context.Context, a Action) (State, error) {
	c.mu.Lock()
	if a.Type == ActionCartIncrement || a.Type == ActionCartDecrement {
		if _, ok := c.state.Catalog.Lookup(a.ProductKey); !ok {
			c.mu.Unlock()
			return State{}, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Product not found: %s", a.ProductKey))
		}
	}
	next, err := Reduce(c.state, a)
	if err != nil {
		c.mu.Unlock()
		return State{}, err
	}
	c.state = next
	c.mu.Unlock()

	switch a.Type {
	case ActionCartIncrement, ActionCartDecrement, ActionCartReset:
		if c.metrics != nil {
			c.metrics.RecordCartAction(ctx, string(a.Type))
		}
	case ActionCatalogLoaded:
		if next.LastReconcile.Changed() {
			c.log(ctx).Info("Cart reconciled with new catalog",
				zap.Strings("clamped", next.LastReconcile.Clamped),
				zap.Strings("removed", next.LastReconcile.Removed),
			)
		}
	}
	return next, nil
}

// Refresh fetches, parses and installs the catalog. Concurrent callers share
// one in-flight fetch, which is detached from any single caller: a cancelled
// ctx only stops that caller from waiting. On failure the previous catalog and
// cart are kept and the error is recorded for display.
func (c *Controller) Refresh(ctx context.Context) error {
	ch := c.group.DoChan("catalog", func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if c.cfg.HTTPTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.cfg.HTTPTimeout)
			defer cancel()
		}
		return nil, c.refresh(fetchCtx)
	})
	select {
	case res := <-ch:
		if res.Shared {
			c.log(ctx).Debug("Joined in-flight catalog refresh")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refreshing reports whether a catalog fetch is in flight
func (c *Controller) Refreshing() bool {
	return c.refreshing.Load()
}

func (c *Controller) refresh(ctx context.Context) (err error) {
	c.refreshing.Store(true)
	defer c.refreshing.Store(false)

	ctx, span := telemetry.StartSpan(ctx, "storefront.refresh_catalog")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	fail := func(err error) error {
		_, _ = c.Dispatch(ctx, CatalogFailed(err, c.now()))
		return err
	}

	endpoint, err := c.cfg.CatalogEndpoint()
	if err != nil {
		return fail(err)
	}

	data, err := c.source.FetchCatalog(ctx, endpoint)
	if err != nil {
		return fail(err)
	}

	result, err := csvimport.ParseCatalog(data)
	if err != nil {
		return fail(err)
	}
	if result.TotalErrors > 0 {
		c.log(ctx).Warn("Catalog rows with errors",
			zap.Int("total_errors", result.TotalErrors),
			zap.Int("total_rows", result.TotalRows),
			zap.String("first_error", result.Errors[0].Error()),
		)
	}

	fetchedAt := c.now()
	next, err := c.Dispatch(ctx, CatalogLoaded(result.Catalog(fetchedAt), fetchedAt))
	if err != nil {
		return err
	}

	span.SetAttributes(
		attribute.Int("catalog.products", next.Catalog.Len()),
		attribute.Int("catalog.excluded", result.Excluded),
	)
	if c.metrics != nil {
		c.metrics.RecordCatalogSize(ctx, next.Catalog.Len())
	}
	c.log(ctx).Info("Catalog loaded",
		zap.Int("products", next.Catalog.Len()),
		zap.Int("excluded", result.Excluded),
		zap.Int("row_errors", result.TotalErrors),
	)
	return nil
}

// Search returns catalog products whose name contains query, ignoring case
func (c *Controller) Search(query string) []catalog.Product {
	return c.Snapshot().Catalog.Search(query)
}

// View projects the current state for display
func (c *Controller) View(query string) View {
	v := Project(c.Snapshot(), query, c.now(), c.cfg.RefreshInterval())
	v.Loading = c.Refreshing()
	return v
}

// Submit sends the current cart as an order for email. Validation runs
// before any configuration or network check. On success the order is added
// to history, announced, and the cart is reset. Submissions are serialized.
func (c *Controller) Submit(ctx context.Context, email string) (result *SubmitResult, err error) {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "storefront.submit_order")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		if c.metrics != nil && shared.KindOf(err) != shared.CodeValidation {
			total := 0.0
			if result != nil {
				total = result.Total.Float64()
			}
			c.metrics.RecordOrder(ctx, total, err)
		}
	}()

	totals := c.Snapshot().Cart.ComputeTotals()

	orderID, err := c.ids.Generate()
	if err != nil {
		return nil, shared.NewSubmissionError("Failed to generate order id", err)
	}
	payload, err := order.NewPayload(orderID, email, totals)
	if err != nil {
		return nil, err
	}

	endpoint, err := c.cfg.SubmitEndpoint()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", payload.OrderID),
		attribute.Int("order.items", len(payload.Items)),
	)

	if err := c.sink.SubmitOrder(ctx, endpoint, payload); err != nil {
		if shared.KindOf(err) == "" {
			err = shared.NewSubmissionError("Failed to submit order", err)
		}
		c.log(ctx).Error("Order submission failed",
			zap.String("order_id", payload.OrderID),
			zap.Error(err),
		)
		return nil, err
	}

	record := order.NewRecord(payload, c.now())
	result = &SubmitResult{
		OrderID: payload.OrderID,
		Total:   payload.Total,
		Items:   payload.Items,
	}

	if err := c.history.Append(ctx, record); err != nil {
		c.log(ctx).Error("Failed to save order to history",
			zap.String("order_id", record.OrderID),
			zap.Error(err),
		)
		result.Warning = "Order was submitted but could not be saved to past orders."
	}
	if err := c.publisher.PublishOrderSubmitted(ctx, record); err != nil {
		c.log(ctx).Warn("Failed to publish order event",
			zap.String("order_id", record.OrderID),
			zap.Error(err),
		)
	}

	if _, err := c.Dispatch(ctx, ResetCart()); err != nil {
		return nil, err
	}

	c.log(ctx).Info("Order submitted",
		zap.String("order_id", record.OrderID),
		zap.String("total", record.Total.Fixed()),
		zap.Int("items", len(record.Items)),
	)
	return result, nil
}

// History lists submitted orders, most recent first
func (c *Controller) History(ctx context.Context) ([]order.Record, error) {
	return c.history.ListAll(ctx)
}

// ClearHistory removes all submitted orders from history
func (c *Controller) ClearHistory(ctx context.Context) error {
	if err := c.history.Clear(ctx); err != nil {
		return err
	}
	c.log(ctx).Info("Order history cleared")
	return nil
}

func (c *Controller) log(ctx context.Context) *zap.Logger {
	return logger.ForContext(ctx, c.logger)
}
