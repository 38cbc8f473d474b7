package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is the immutable snapshot of one line at order-creation time.
// Later edits to the product or variant never touch these rows.
type OrderItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID           *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	ProductNameSnapshot string          `gorm:"column:product_name_snapshot;not null"`
	SKUSnapshot         *string         `gorm:"column:sku_snapshot"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity            int             `gorm:"column:quantity;not null"`
	LineTotal           decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
