package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const orderNumberInsertAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type variantResolver interface {
	ResolveActiveVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error)
}

type cartConverter interface {
	ActiveForCheckout(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

// OrderPage is one page of an order listing plus the follow-up cursor.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}

// Service exposes order operations for shoppers and admins.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*CreateResult, error)
	CreateFromCart(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CreateResult, error)
	GetByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter, limit int, cursor string) (*OrderPage, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	AdminList(ctx context.Context, filter ListFilter, limit int, cursor string) (*OrderPage, error)
	AdminDashboard(ctx context.Context) (*Dashboard, error)
	AdminSetStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error)
	AdminSetPaymentStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error)
	AdminDelete(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo     OrderRepository
	tx       txRunner
	resolver variantResolver
	carts    cartConverter
	now      func() time.Time
}

// NewService builds an order service backed by the provided stack.
func NewService(repo OrderRepository, tx txRunner, resolver variantResolver, carts cartConverter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("variant resolver required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart converter required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		resolver: resolver,
		carts:    carts,
		now:      time.Now,
	}, nil
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]string{"field": field})
}

// Create validates the payload, derives any absent totals and persists the
// order with its immutable snapshots in one transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*CreateResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return nil, fieldError("items", "order must contain at least one item")
	}

	lines := make([]models.OrderItem, 0, len(input.Items))
	derivedSubtotal := decimal.Zero
	for i, item := range input.Items {
		if item.VariantID == uuid.Nil {
			return nil, fieldError(fmt.Sprintf("items[%d].variant_id", i), "variant id is required")
		}
		if item.Quantity < 1 {
			return nil, fieldError(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}

		variant, product, err := s.resolver.ResolveActiveVariant(ctx, item.VariantID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return nil, fieldError("items", "one or more items reference an unknown variant")
			}
			return nil, err
		}

		unitPrice := variant.Price
		if item.UnitPrice != nil {
			if item.UnitPrice.IsNegative() {
				return nil, fieldError(fmt.Sprintf("items[%d].unit_price", i), "unit price cannot be negative")
			}
			unitPrice = *item.UnitPrice
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		derivedSubtotal = derivedSubtotal.Add(lineTotal)

		sku := variant.SKU
		lines = append(lines, models.OrderItem{
			ProductID:           product.ID,
			VariantID:           &variant.ID,
			ProductNameSnapshot: product.Name,
			SKUSnapshot:         &sku,
			UnitPrice:           unitPrice,
			Quantity:            item.Quantity,
			LineTotal:           lineTotal,
		})
	}

	return s.create(ctx, userID, createParams{
		lines:           lines,
		derivedSubtotal: derivedSubtotal,
		paymentMethod:   input.PaymentMethod,
		currency:        input.Currency,
		shipping:        input.ShippingAddress,
		billing:         input.BillingAddress,
		subtotal:        input.Subtotal,
		discountTotal:   input.DiscountTotal,
		taxTotal:        input.TaxTotal,
		shippingTotal:   input.ShippingTotal,
		grandTotal:      input.GrandTotal,
		coupons:         input.Coupons,
		notes:           input.Notes,
	})
}

// CreateFromCart builds the order from the active cart's price snapshots and
// marks the cart converted in the same transaction.
func (s *service) CreateFromCart(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CreateResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.carts.ActiveForCheckout(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderItem, 0, len(cart.Items))
	derivedSubtotal := decimal.Zero
	for _, item := range cart.Items {
		lineTotal := item.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(item.Quantity)))
		derivedSubtotal = derivedSubtotal.Add(lineTotal)

		line := models.OrderItem{
			VariantID: &item.VariantID,
			UnitPrice: item.UnitPriceSnapshot,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		}
		if variant := item.Variant; variant != nil {
			line.ProductID = variant.ProductID
			sku := variant.SKU
			line.SKUSnapshot = &sku
			line.ProductNameSnapshot = variant.Name
			if variant.Product != nil {
				line.ProductNameSnapshot = variant.Product.Name
			}
		}
		lines = append(lines, line)
	}

	return s.create(ctx, userID, createParams{
		lines:           lines,
		derivedSubtotal: derivedSubtotal,
		paymentMethod:   input.PaymentMethod,
		currency:        input.Currency,
		shipping:        input.ShippingAddress,
		billing:         input.BillingAddress,
		discountTotal:   input.DiscountTotal,
		taxTotal:        input.TaxTotal,
		shippingTotal:   input.ShippingTotal,
		coupons:         input.Coupons,
		notes:           input.Notes,
		convertCartID:   &cart.ID,
	})
}

type createParams struct {
	lines           []models.OrderItem
	derivedSubtotal decimal.Decimal
	paymentMethod   string
	currency        string
	shipping        AddressInput
	billing         *AddressInput
	subtotal        *decimal.Decimal
	discountTotal   *decimal.Decimal
	taxTotal        *decimal.Decimal
	shippingTotal   *decimal.Decimal
	grandTotal      *decimal.Decimal
	coupons         []CouponInput
	notes           *string
	convertCartID   *uuid.UUID
}

func (s *service) create(ctx context.Context, userID uuid.UUID, params createParams) (*CreateResult, error) {
	if params.paymentMethod == "" {
		return nil, fieldError("payment_method", "payment method is required")
	}
	if err := validateAddress("shipping_address", params.shipping); err != nil {
		return nil, err
	}
	if params.billing != nil {
		if err := validateAddress("billing_address", *params.billing); err != nil {
			return nil, err
		}
	}

	currency := enums.CurrencyUSD
	if params.currency != "" {
		parsed, err := enums.ParseCurrency(params.currency)
		if err != nil {
			return nil, fieldError("currency", "unsupported currency")
		}
		currency = parsed
	}

	subtotal := params.derivedSubtotal
	if params.subtotal != nil {
		subtotal = *params.subtotal
	}
	discount := decimal.Zero
	if params.discountTotal != nil {
		discount = *params.discountTotal
	}
	tax := decimal.Zero
	if params.taxTotal != nil {
		tax = *params.taxTotal
	}
	shipping := decimal.Zero
	if params.shippingTotal != nil {
		shipping = *params.shippingTotal
	}
	for field, amount := range map[string]decimal.Decimal{
		"subtotal":       subtotal,
		"discount_total": discount,
		"tax_total":      tax,
		"shipping_total": shipping,
	} {
		if amount.IsNegative() {
			return nil, fieldError(field, "amount cannot be negative")
		}
	}

	grand := subtotal.Add(tax).Add(shipping).Sub(discount)
	if params.grandTotal != nil {
		grand = *params.grandTotal
	}
	if grand.IsNegative() {
		return nil, fieldError("grand_total", "grand total cannot be negative")
	}

	addresses := buildAddressSnapshots(params.shipping, params.billing)

	coupons := make([]models.OrderCoupon, 0, len(params.coupons))
	for i, coupon := range params.coupons {
		if coupon.Code == "" {
			return nil, fieldError(fmt.Sprintf("coupons[%d].code", i), "coupon code is required")
		}
		if coupon.DiscountAmount.IsNegative() {
			return nil, fieldError(fmt.Sprintf("coupons[%d].discount_amount", i), "discount amount cannot be negative")
		}
		coupons = append(coupons, models.OrderCoupon{
			Code:           coupon.Code,
			DiscountAmount: coupon.DiscountAmount,
		})
	}

	var created *models.Order
	for attempt := 0; attempt < orderNumberInsertAttempts; attempt++ {
		number, err := NewOrderNumber(s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}

		order := &models.Order{
			UserID:        userID,
			OrderNumber:   number,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusUnpaid,
			PaymentMethod: params.paymentMethod,
			Currency:      currency,
			Subtotal:      subtotal,
			DiscountTotal: discount,
			TaxTotal:      tax,
			ShippingTotal: shipping,
			GrandTotal:    grand,
			Notes:         params.notes,
			Items:         cloneItems(params.lines),
			Addresses:     cloneAddresses(addresses),
			Coupons:       cloneCoupons(coupons),
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if _, err := repo.Create(ctx, order); err != nil {
				return err
			}
			if params.convertCartID != nil {
				return s.carts.MarkConverted(ctx, tx, *params.convertCartID)
			}
			return nil
		})
		if err == nil {
			created = order
			break
		}
		if db.IsUniqueViolation(err, "idx_orders_number") {
			continue
		}
		if pkgerrors.IsForeignKeyViolation(err) {
			return nil, fieldError("items", "one or more items reference an unknown variant")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	if created == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique order number")
	}

	return &CreateResult{
		OrderID:     created.ID,
		OrderNumber: created.OrderNumber,
		Status:      created.Status,
		GrandTotal:  created.GrandTotal,
	}, nil
}

func validateAddress(field string, input AddressInput) error {
	if input.FullName == "" || input.Line1 == "" || input.City == "" || input.State == "" || input.PostalCode == "" {
		return fieldError(field, "full_name, line1, city, state and postal_code are required")
	}
	return nil
}

func buildAddressSnapshots(shipping AddressInput, billing *AddressInput) []models.OrderAddress {
	if billing == nil {
		billing = &shipping
	}
	return []models.OrderAddress{
		toAddressSnapshot(enums.AddressTypeShipping, shipping),
		toAddressSnapshot(enums.AddressTypeBilling, *billing),
	}
}

func toAddressSnapshot(addrType enums.AddressType, input AddressInput) models.OrderAddress {
	country := input.CountryCode
	if country == "" {
		country = "US"
	}
	return models.OrderAddress{
		AddressType: addrType,
		FullName:    input.FullName,
		Phone:       input.Phone,
		Line1:       input.Line1,
		Line2:       input.Line2,
		City:        input.City,
		State:       input.State,
		PostalCode:  input.PostalCode,
		CountryCode: country,
	}
}

func cloneItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out
}

func cloneAddresses(addresses []models.OrderAddress) []models.OrderAddress {
	out := make([]models.OrderAddress, len(addresses))
	copy(out, addresses)
	return out
}

func cloneCoupons(coupons []models.OrderCoupon) []models.OrderCoupon {
	out := make([]models.OrderCoupon, len(coupons))
	copy(out, coupons)
	return out
}

// GetByIDForUser loads an order scoped to its owner; anyone else sees
// NotFound.
func (s *service) GetByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// ListByUser pages through the user's own orders.
func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter, limit int, cursor string) (*OrderPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	filter.UserID = &userID
	return s.list(ctx, filter, limit, cursor)
}

// AdminList pages through all orders.
func (s *service) AdminList(ctx context.Context, filter ListFilter, limit int, cursor string) (*OrderPage, error) {
	return s.list(ctx, filter, limit, cursor)
}

func (s *service) list(ctx context.Context, filter ListFilter, limit int, cursor string) (*OrderPage, error) {
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit = pagination.NormalizeLimit(limit)
	rows, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(limit), parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &OrderPage{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// AdminDashboard returns the per-status counts and realized revenue rollup.
func (s *service) AdminDashboard(ctx context.Context) (*Dashboard, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	revenue, err := s.repo.RevenueTotal(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}

	dashboard := &Dashboard{StatusCounts: counts, Revenue: revenue}
	for _, count := range counts {
		dashboard.TotalOrders += count
	}
	return dashboard, nil
}

// Cancel is the customer-initiated cancellation: legal only from pending or
// processing, everything else is a state conflict.
func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !CanCustomerCancel(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot be cancelled", order.Status))
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled, &now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	return order, nil
}

// AdminSetStatus sets any of the known statuses after canonicalizing the raw
// value. Admins may jump states; totals are never recomputed here.
func (s *service) AdminSetStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error) {
	status, err := enums.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]string{"field": "status", "value": rawStatus})
	}

	order, err := s.findByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var cancelledAt *time.Time
	if status == enums.OrderStatusCancelled && order.CancelledAt == nil {
		now := s.now().UTC()
		cancelledAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, status, cancelledAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = status
	if cancelledAt != nil {
		order.CancelledAt = cancelledAt
	}
	return order, nil
}

// AdminSetPaymentStatus sets the payment status independently of fulfillment.
func (s *service) AdminSetPaymentStatus(ctx context.Context, orderID uuid.UUID, rawStatus string) (*models.Order, error) {
	status, err := enums.ParsePaymentStatus(rawStatus)
	if err != nil {
		return nil, fieldError("payment_status", "unknown payment status")
	}

	order, err := s.findByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}
	order.PaymentStatus = status
	return order, nil
}

// AdminDelete removes the order and all snapshot rows atomically.
func (s *service) AdminDelete(ctx context.Context, orderID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteCascade(ctx, orderID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *service) findByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
