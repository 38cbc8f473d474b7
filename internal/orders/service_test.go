package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubResolver struct {
	variants map[uuid.UUID]*models.ProductVariant
	products map[uuid.UUID]*models.Product
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		variants: map[uuid.UUID]*models.ProductVariant{},
		products: map[uuid.UUID]*models.Product{},
	}
}

func (s *stubResolver) ResolveActiveVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	variant, ok := s.variants[variantID]
	if !ok || !variant.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return variant, s.products[variant.ProductID], nil
}

func (s *stubResolver) add(name string, price float64) *models.ProductVariant {
	product := &models.Product{ID: uuid.New(), Name: name, IsActive: true}
	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		SKU:       "SKU-" + uuid.NewString()[:8],
		Name:      name,
		Price:     decimal.NewFromFloat(price),
		IsActive:  true,
	}
	s.products[product.ID] = product
	s.variants[variant.ID] = variant
	return variant
}

type stubCarts struct {
	cart          *models.Cart
	checkoutErr   error
	convertedID   *uuid.UUID
	convertCalled bool
}

func (s *stubCarts) ActiveForCheckout(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return s.cart, nil
}

func (s *stubCarts) MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	s.convertCalled = true
	s.convertedID = &cartID
	return nil
}

type stubRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) OrderRepository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	for i := range order.Addresses {
		order.Addresses[i].ID = uuid.New()
		order.Addresses[i].OrderID = order.ID
	}
	for i := range order.Coupons {
		order.Coupons[i].ID = uuid.New()
		order.Coupons[i].OrderID = order.ID
	}
	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	copied.Addresses = append([]models.OrderAddress(nil), order.Addresses...)
	copied.Coupons = append([]models.OrderCoupon(nil), order.Coupons...)
	s.orders[order.ID] = &copied
	return order, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, cancelledAt *time.Time) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	if cancelledAt != nil {
		order.CancelledAt = cancelledAt
	}
	return nil
}

func (s *stubRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.PaymentStatus = status
	return nil
}

func (s *stubRepo) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		out = append(out, *order)
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	counts := map[enums.OrderStatus]int64{}
	for _, order := range s.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (s *stubRepo) RevenueTotal(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, order := range s.orders {
		if order.Status == enums.OrderStatusCancelled {
			continue
		}
		total = total.Add(order.GrandTotal)
	}
	return total, nil
}

func newTestService(t *testing.T) (Service, *stubRepo, *stubResolver, *stubCarts) {
	t.Helper()
	repo := newStubRepo()
	resolver := newStubResolver()
	carts := &stubCarts{}
	svc, err := NewService(repo, stubTx{}, resolver, carts)
	require.NoError(t, err)
	return svc, repo, resolver, carts
}

func shippingAddress() AddressInput {
	return AddressInput{
		FullName:   "Jamie Rivera",
		Line1:      "1 Main St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
	}
}

func decPtr(value float64) *decimal.Decimal {
	d := decimal.NewFromFloat(value)
	return &d
}

func TestCreateDerivesTotals(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	userID := uuid.New()
	tenner := resolver.add("Tenner", 10.00)
	fiver := resolver.add("Fiver", 5.00)

	result, err := svc.Create(context.Background(), userID, CreateInput{
		Items: []ItemInput{
			{VariantID: tenner.ID, Quantity: 2},
			{VariantID: fiver.ID, Quantity: 1},
		},
		PaymentMethod:   "card",
		ShippingAddress: shippingAddress(),
		TaxTotal:        decPtr(2),
		ShippingTotal:   decPtr(3),
		DiscountTotal:   decPtr(1),
	})
	require.NoError(t, err)

	assert.True(t, result.GrandTotal.Equal(decimal.NewFromInt(29)),
		"10x2 + 5x1 + tax 2 + shipping 3 - discount 1 = 29, got %s", result.GrandTotal)
	assert.Equal(t, enums.OrderStatusPending, result.Status)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[2-9A-HJ-NP-Z]{6}$`), result.OrderNumber)

	stored := repo.orders[result.OrderID]
	assert.True(t, stored.Subtotal.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, enums.PaymentStatusUnpaid, stored.PaymentStatus)
	assert.Len(t, stored.Items, 2)
}

func TestCreateSnapshotsAreImmutable(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	variant := resolver.add("Mug", 8.00)

	result, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Items:           []ItemInput{{VariantID: variant.ID, Quantity: 1}},
		PaymentMethod:   "card",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	// catalog changes after the order exists
	variant.Price = decimal.NewFromFloat(99.00)
	resolver.products[variant.ProductID].Name = "Renamed Mug"

	stored := repo.orders[result.OrderID]
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.NewFromFloat(8.00)))
	assert.Equal(t, "Mug", stored.Items[0].ProductNameSnapshot)
}

func TestCreateBillingDefaultsToShipping(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	variant := resolver.add("Cap", 12.00)

	result, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Items:           []ItemInput{{VariantID: variant.ID, Quantity: 1}},
		PaymentMethod:   "cod",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	stored := repo.orders[result.OrderID]
	require.Len(t, stored.Addresses, 2)
	types := map[enums.AddressType]string{}
	for _, addr := range stored.Addresses {
		types[addr.AddressType] = addr.Line1
	}
	assert.Equal(t, "1 Main St", types[enums.AddressTypeShipping])
	assert.Equal(t, "1 Main St", types[enums.AddressTypeBilling])
}

func TestCreateValidationNamesField(t *testing.T) {
	svc, _, resolver, _ := newTestService(t)
	variant := resolver.add("Pin", 2.00)

	cases := []struct {
		name  string
		input CreateInput
		field string
	}{
		{
			name:  "no items",
			input: CreateInput{PaymentMethod: "card", ShippingAddress: shippingAddress()},
			field: "items",
		},
		{
			name: "zero quantity",
			input: CreateInput{
				Items:           []ItemInput{{VariantID: variant.ID, Quantity: 0}},
				PaymentMethod:   "card",
				ShippingAddress: shippingAddress(),
			},
			field: "items[0].quantity",
		},
		{
			name: "missing payment method",
			input: CreateInput{
				Items:           []ItemInput{{VariantID: variant.ID, Quantity: 1}},
				ShippingAddress: shippingAddress(),
			},
			field: "payment_method",
		},
		{
			name: "unknown variant",
			input: CreateInput{
				Items:           []ItemInput{{VariantID: uuid.New(), Quantity: 1}},
				PaymentMethod:   "card",
				ShippingAddress: shippingAddress(),
			},
			field: "items",
		},
		{
			name: "incomplete shipping address",
			input: CreateInput{
				Items:           []ItemInput{{VariantID: variant.ID, Quantity: 1}},
				PaymentMethod:   "card",
				ShippingAddress: AddressInput{FullName: "X"},
			},
			field: "shipping_address",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			details, ok := typed.Details().(map[string]string)
			require.True(t, ok, "validation error should carry details")
			assert.Equal(t, tc.field, details["field"])
		})
	}
}

func TestCreateFromCartUsesSnapshotsAndConverts(t *testing.T) {
	svc, repo, resolver, carts := newTestService(t)
	userID := uuid.New()
	variant := resolver.add("Lamp", 30.00)

	cartID := uuid.New()
	carts.cart = &models.Cart{
		ID:     cartID,
		UserID: userID,
		Status: enums.CartStatusActive,
		Items: []models.CartItem{
			{
				ID:                uuid.New(),
				CartID:            cartID,
				VariantID:         variant.ID,
				Quantity:          2,
				UnitPriceSnapshot: decimal.NewFromFloat(25.00), // older than current price
				Variant:           variant,
			},
		},
	}

	result, err := svc.CreateFromCart(context.Background(), userID, CheckoutInput{
		PaymentMethod:   "card",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	// checkout charges the snapshot, not the current 30.00
	assert.True(t, result.GrandTotal.Equal(decimal.NewFromInt(50)))
	assert.True(t, carts.convertCalled)
	require.NotNil(t, carts.convertedID)
	assert.Equal(t, cartID, *carts.convertedID)

	stored := repo.orders[result.OrderID]
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.NewFromFloat(25.00)))
}

func TestCreateFromCartEmptyCart(t *testing.T) {
	svc, _, _, carts := newTestService(t)
	carts.checkoutErr = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")

	_, err := svc.CreateFromCart(context.Background(), uuid.New(), CheckoutInput{
		PaymentMethod:   "card",
		ShippingAddress: shippingAddress(),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func seedOrder(t *testing.T, svc Service, resolver *stubResolver, userID uuid.UUID) *CreateResult {
	t.Helper()
	variant := resolver.add("Seed", 10.00)
	result, err := svc.Create(context.Background(), userID, CreateInput{
		Items:           []ItemInput{{VariantID: variant.ID, Quantity: 1}},
		PaymentMethod:   "card",
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)
	return result
}

func TestCancelLegality(t *testing.T) {
	cases := []struct {
		from    enums.OrderStatus
		allowed bool
	}{
		{enums.OrderStatusPending, true},
		{enums.OrderStatusProcessing, true},
		{enums.OrderStatusConfirmed, false},
		{enums.OrderStatusShipped, false},
		{enums.OrderStatusDelivered, false},
		{enums.OrderStatusCancelled, false},
		{enums.OrderStatusRefunded, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from), func(t *testing.T) {
			svc, repo, resolver, _ := newTestService(t)
			userID := uuid.New()
			created := seedOrder(t, svc, resolver, userID)
			repo.orders[created.OrderID].Status = tc.from

			order, err := svc.Cancel(context.Background(), created.OrderID, userID)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, enums.OrderStatusCancelled, order.Status)
				assert.NotNil(t, order.CancelledAt)
				return
			}
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
			assert.Equal(t, tc.from, repo.orders[created.OrderID].Status, "order must be unchanged")
		})
	}
}

func TestCancelOwnershipScoped(t *testing.T) {
	svc, _, resolver, _ := newTestService(t)
	created := seedOrder(t, svc, resolver, uuid.New())

	_, err := svc.Cancel(context.Background(), created.OrderID, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAdminSetStatusCanonicalizes(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	created := seedOrder(t, svc, resolver, uuid.New())

	order, err := svc.AdminSetStatus(context.Background(), created.OrderID, "  Cancel ")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.NotNil(t, order.CancelledAt)

	// admins may jump anywhere, including out of terminal states
	order, err = svc.AdminSetStatus(context.Background(), created.OrderID, "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, order.Status)

	_, err = svc.AdminSetStatus(context.Background(), created.OrderID, "teleported")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, enums.OrderStatusShipped, repo.orders[created.OrderID].Status, "order must be unchanged")
}

func TestAdminSetStatusNeverTouchesTotals(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	created := seedOrder(t, svc, resolver, uuid.New())
	before := repo.orders[created.OrderID].GrandTotal

	_, err := svc.AdminSetStatus(context.Background(), created.OrderID, "delivered")
	require.NoError(t, err)
	assert.True(t, repo.orders[created.OrderID].GrandTotal.Equal(before))
}

func TestAdminSetPaymentStatus(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	created := seedOrder(t, svc, resolver, uuid.New())

	order, err := svc.AdminSetPaymentStatus(context.Background(), created.OrderID, "PAID")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, enums.PaymentStatusPaid, repo.orders[created.OrderID].PaymentStatus)

	_, err = svc.AdminSetPaymentStatus(context.Background(), created.OrderID, "iou")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestAdminDelete(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	created := seedOrder(t, svc, resolver, uuid.New())

	require.NoError(t, svc.AdminDelete(context.Background(), created.OrderID))
	assert.Empty(t, repo.orders)

	err := svc.AdminDelete(context.Background(), created.OrderID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAdminDashboard(t *testing.T) {
	svc, repo, resolver, _ := newTestService(t)
	userID := uuid.New()

	first := seedOrder(t, svc, resolver, userID)
	second := seedOrder(t, svc, resolver, userID)
	third := seedOrder(t, svc, resolver, userID)
	repo.orders[second.OrderID].Status = enums.OrderStatusDelivered
	repo.orders[third.OrderID].Status = enums.OrderStatusCancelled
	_ = first

	dashboard, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), dashboard.TotalOrders)
	assert.Equal(t, int64(1), dashboard.StatusCounts[enums.OrderStatusPending])
	assert.Equal(t, int64(1), dashboard.StatusCounts[enums.OrderStatusCancelled])
	// each order is 10.00; the cancelled one drops out of revenue
	assert.True(t, dashboard.Revenue.Equal(decimal.NewFromInt(20)))
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		number, err := NewOrderNumber(now)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^ORD-20250815-[2-9A-HJ-NP-Z]{6}$`), number)
		seen[number] = true
	}
	assert.Greater(t, len(seen), 1, "suffixes should vary")
}
