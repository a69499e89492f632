package storefront

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sampleCSV = "Product Name,Inventory,Price,Resale\n" +
	"Widget,5,$2.50,true\n" +
	"Gadget,2,10,TRUE\n" +
	"Mystery,3,,true\n" +
	"Retired,4,1.00,false\n" +
	"Empty,0,1.00,true\n"

var fixedNow = time.Date(2026, 5, 1, 14, 30, 15, 0, time.UTC)

func product(t *testing.T, name string, inventory int, price string) catalog.Product {
	t.Helper()
	p := catalog.UnavailablePrice()
	if price != "" {
		m, err := valueobject.NewMoneyFromString(price)
		require.NoError(t, err)
		p = catalog.NewPrice(m)
	}
	prod, err := catalog.NewProduct(name, inventory, p)
	require.NoError(t, err)
	return prod
}

func testCatalog(t *testing.T) *catalog.Catalog {
	return catalog.NewCatalog([]catalog.Product{
		product(t, "Widget", 5, "2.50"),
		product(t, "Gadget", 2, "10"),
		product(t, "Mystery", 3, ""),
	}, fixedNow)
}

// fakeSource serves a configurable catalog body
type fakeSource struct {
	mu    sync.Mutex
	body  string
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeSource) set(body string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body, f.err = body, err
}

func (f *fakeSource) FetchCatalog(ctx context.Context, _ string) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

// mockSink records submitted payloads
type mockSink struct {
	mock.Mock
}

func (m *mockSink) SubmitOrder(ctx context.Context, endpoint string, payload order.Payload) error {
	args := m.Called(ctx, endpoint, payload)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderSubmitted(ctx context.Context, record order.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func testConfig() config.StorefrontConfig {
	return config.StorefrontConfig{
		CatalogURL:             "https://docs.example.com/sheet.csv",
		SubmitURL:              "https://script.example.com/exec",
		RefreshIntervalMinutes: 2,
	}
}

func newTestController(t *testing.T, cfg config.StorefrontConfig, source CatalogSource, sink OrderSink, opts ...Option) (*Controller, order.HistoryRepository) {
	t.Helper()
	history := persistence.NewKVOrderHistoryRepository(cache.NewInMemoryKeyValueStore(), "")
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return NewController(cfg, source, sink, history, opts...), history
}
