package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is a placed order. Totals are fixed at creation; later mutations are
// limited to status and payment_status transitions.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	PaymentMethod string              `gorm:"column:payment_method;not null"`
	Currency      enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountTotal decimal.Decimal     `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	TaxTotal      decimal.Decimal     `gorm:"column:tax_total;type:numeric(12,2);not null;default:0"`
	ShippingTotal decimal.Decimal     `gorm:"column:shipping_total;type:numeric(12,2);not null;default:0"`
	GrandTotal    decimal.Decimal     `gorm:"column:grand_total;type:numeric(12,2);not null"`
	Notes         *string             `gorm:"column:notes"`
	CancelledAt   *time.Time          `gorm:"column:cancelled_at"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Addresses     []OrderAddress      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Coupons       []OrderCoupon       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
