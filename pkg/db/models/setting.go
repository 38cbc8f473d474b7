package models

import "time"

// Setting is one key/value pair of storefront display configuration. The
// cart/order core never depends on these for correctness.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
