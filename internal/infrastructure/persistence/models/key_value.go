// Package models holds gorm persistence models.
package models

import "time"

// KeyValueModel is one named blob. The order history lives in a single row.
type KeyValueModel struct {
	StoreKey  string    `gorm:"column:store_key;type:varchar(191);primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (KeyValueModel) TableName() string {
	return "key_values"
}
