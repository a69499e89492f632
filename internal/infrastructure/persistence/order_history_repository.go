package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultHistoryKey is the record name holding the order array
const DefaultHistoryKey = "pastOrders"

// KVOrderHistoryRepository keeps every submitted order as one JSON array
// under a single key of a KeyValueStore.
type KVOrderHistoryRepository struct {
	store shared.KeyValueStore
	key   string
	mu    sync.Mutex
}

// NewKVOrderHistoryRepository creates a repository storing under key
func NewKVOrderHistoryRepository(store shared.KeyValueStore, key string) *KVOrderHistoryRepository {
	if key == "" {
		key = DefaultHistoryKey
	}
	return &KVOrderHistoryRepository{store: store, key: key}
}

// Append adds a record. Concurrent appends are serialized so none is lost.
func (r *KVOrderHistoryRepository) Append(ctx context.Context, record order.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode order history: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save order history: %w", err)
	}
	return nil
}

// ListAll returns records newest first. Records with equal timestamps are
// returned in reverse append order.
func (r *KVOrderHistoryRepository) ListAll(ctx context.Context) ([]order.Record, error) {
	r.mu.Lock()
	records, err := r.load(ctx)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// Clear removes the whole history
func (r *KVOrderHistoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("clear order history: %w", err)
	}
	return nil
}

func (r *KVOrderHistoryRepository) load(ctx context.Context) ([]order.Record, error) {
	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, shared.ErrKeyNotFound) {
		return []order.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	if len(data) == 0 {
		return []order.Record{}, nil
	}

	var records []order.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("order history under %q is corrupted: %w", r.key, err)
	}
	return records, nil
}

var _ order.HistoryRepository = (*KVOrderHistoryRepository)(nil)
