package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AddressInput is an inline address snapshotted onto the order.
type AddressInput struct {
	FullName    string  `json:"full_name" validate:"required"`
	Phone       *string `json:"phone,omitempty"`
	Line1       string  `json:"line1" validate:"required"`
	Line2       *string `json:"line2,omitempty"`
	City        string  `json:"city" validate:"required"`
	State       string  `json:"state" validate:"required"`
	PostalCode  string  `json:"postal_code" validate:"required"`
	CountryCode string  `json:"country_code,omitempty"`
}

// ItemInput is one requested order line. UnitPrice overrides the variant's
// current price when set; otherwise the resolver's price is used.
type ItemInput struct {
	VariantID uuid.UUID        `json:"variant_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CouponInput records a coupon applied at creation time.
type CouponInput struct {
	Code           string          `json:"code" validate:"required"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// CreateInput is the payload for creating an order directly.
type CreateInput struct {
	Items           []ItemInput      `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string           `json:"payment_method" validate:"required"`
	Currency        string           `json:"currency,omitempty"`
	ShippingAddress AddressInput     `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressInput    `json:"billing_address,omitempty"`
	Subtotal        *decimal.Decimal `json:"subtotal,omitempty"`
	DiscountTotal   *decimal.Decimal `json:"discount_total,omitempty"`
	TaxTotal        *decimal.Decimal `json:"tax_total,omitempty"`
	ShippingTotal   *decimal.Decimal `json:"shipping_total,omitempty"`
	GrandTotal      *decimal.Decimal `json:"grand_total,omitempty"`
	Coupons         []CouponInput    `json:"coupons,omitempty" validate:"dive"`
	Notes           *string          `json:"notes,omitempty"`
}

// CheckoutInput creates an order from the active cart; the item list comes
// from the cart's snapshots instead of the request body.
type CheckoutInput struct {
	PaymentMethod   string           `json:"payment_method" validate:"required"`
	Currency        string           `json:"currency,omitempty"`
	ShippingAddress AddressInput     `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressInput    `json:"billing_address,omitempty"`
	DiscountTotal   *decimal.Decimal `json:"discount_total,omitempty"`
	TaxTotal        *decimal.Decimal `json:"tax_total,omitempty"`
	ShippingTotal   *decimal.Decimal `json:"shipping_total,omitempty"`
	Coupons         []CouponInput    `json:"coupons,omitempty" validate:"dive"`
	Notes           *string          `json:"notes,omitempty"`
}

// CreateResult is the acknowledgement returned after order creation.
type CreateResult struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	GrandTotal  decimal.Decimal   `json:"grand_total"`
}

// ListFilter narrows order queries.
type ListFilter struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// Dashboard is the admin rollup: per-status counts and realized revenue.
type Dashboard struct {
	StatusCounts map[enums.OrderStatus]int64 `json:"status_counts"`
	TotalOrders  int64                       `json:"total_orders"`
	Revenue      decimal.Decimal             `json:"revenue"`
}
