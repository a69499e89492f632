package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKeyValueStore implements KeyValueStore on a single SQL table
type GormKeyValueStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormKeyValueStore creates a store over db. The key_values table must
// already exist (see Database.Migrate).
func NewGormKeyValueStore(db *gorm.DB) *GormKeyValueStore {
	return &GormKeyValueStore{db: db, now: time.Now}
}

// Get returns the value or ErrKeyNotFound
func (s *GormKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	var model models.KeyValueModel
	err := s.db.WithContext(ctx).
		Where("store_key = ?", key).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	return model.Value, nil
}

// Set upserts the value
func (s *GormKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	model := models.KeyValueModel{
		StoreKey:  key,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Delete removes the row for key
func (s *GormKeyValueStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("store_key = ?", key).
		Delete(&models.KeyValueModel{}).Error
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close does nothing; the Database owns the connection
func (s *GormKeyValueStore) Close() error {
	return nil
}

var _ shared.KeyValueStore = (*GormKeyValueStore)(nil)
