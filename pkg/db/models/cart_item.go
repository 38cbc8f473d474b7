package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one variant line in a cart. UnitPriceSnapshot is the price
// captured when the line was added or last merged; it is what checkout
// charges even if the variant's price moves afterwards.
type CartItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_variant"`
	VariantID         uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_variant"`
	Quantity          int             `gorm:"column:quantity;not null"`
	UnitPriceSnapshot decimal.Decimal `gorm:"column:unit_price_snapshot;type:numeric(12,2);not null"`
	Variant           *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
