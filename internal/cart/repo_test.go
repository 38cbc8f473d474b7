package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  brand_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  tags TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  parent_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  logo_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  converted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_snapshot NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_variant ON cart_items (cart_id, variant_id);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedVariantRow(t *testing.T, db *gorm.DB, price float64) *models.ProductVariant {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Canvas Tote",
		Slug:     "canvas-tote-" + uuid.NewString()[:8],
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)

	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		SKU:       "TOTE-" + uuid.NewString()[:8],
		Name:      "Natural",
		Price:     decimal.NewFromFloat(price),
		StockQty:  4,
		IsActive:  true,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func seedCart(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.CartStatus) *models.Cart {
	t.Helper()

	cart := &models.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(cart).Error)
	return cart
}

func seedItem(t *testing.T, db *gorm.DB, cartID, variantID uuid.UUID, quantity int, price float64) *models.CartItem {
	t.Helper()

	item := &models.CartItem{
		ID:                uuid.New(),
		CartID:            cartID,
		VariantID:         variantID,
		Quantity:          quantity,
		UnitPriceSnapshot: decimal.NewFromFloat(price),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryFindActiveByUserSkipsConverted(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	seedCart(t, db, userID, enums.CartStatusConverted)
	active := seedCart(t, db, userID, enums.CartStatusActive)

	found, err := repo.FindActiveByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, found.ID)
}

func TestRepositoryFindActiveByUserNotFound(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindActiveByUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindItemByIDForUserEnforcesOwnership(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	owner := uuid.New()
	cart := seedCart(t, db, owner, enums.CartStatusActive)
	variant := seedVariantRow(t, db, 12.00)
	item := seedItem(t, db, cart.ID, variant.ID, 2, 12.00)

	found, foundCart, err := repo.FindItemByIDForUser(context.Background(), item.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	assert.Equal(t, cart.ID, foundCart.ID)

	_, _, err = repo.FindItemByIDForUser(context.Background(), item.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindItemForUpdate(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart := seedCart(t, db, uuid.New(), enums.CartStatusActive)
	variant := seedVariantRow(t, db, 8.00)
	seedItem(t, db, cart.ID, variant.ID, 3, 8.00)

	item, err := repo.FindItemForUpdate(context.Background(), cart.ID, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	_, err = repo.FindItemForUpdate(context.Background(), cart.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryReplaceItems(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart := seedCart(t, db, uuid.New(), enums.CartStatusActive)
	oldVariant := seedVariantRow(t, db, 5.00)
	seedItem(t, db, cart.ID, oldVariant.ID, 1, 5.00)

	next := seedVariantRow(t, db, 6.50)
	err := repo.ReplaceItems(context.Background(), cart.ID, []models.CartItem{
		{
			ID:                uuid.New(),
			VariantID:         next.ID,
			Quantity:          2,
			UnitPriceSnapshot: decimal.NewFromFloat(6.50),
		},
	})
	require.NoError(t, err)

	refreshed, err := repo.FindActiveByUser(context.Background(), cart.UserID)
	require.NoError(t, err)
	require.Len(t, refreshed.Items, 1)
	assert.Equal(t, next.ID, refreshed.Items[0].VariantID)

	// replacing with nothing empties the cart
	require.NoError(t, repo.ReplaceItems(context.Background(), cart.ID, nil))
	refreshed, err = repo.FindActiveByUser(context.Background(), cart.UserID)
	require.NoError(t, err)
	assert.Empty(t, refreshed.Items)
}

func TestRepositoryMarkStatus(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart := seedCart(t, db, uuid.New(), enums.CartStatusActive)
	now := time.Now().UTC()

	require.NoError(t, repo.MarkStatus(context.Background(), cart.ID, enums.CartStatusConverted, &now))

	var row models.Cart
	require.NoError(t, db.Where("id = ?", cart.ID).First(&row).Error)
	assert.Equal(t, enums.CartStatusConverted, row.Status)
	assert.NotNil(t, row.ConvertedAt)

	_, err := repo.FindActiveByUser(context.Background(), cart.UserID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUniqueCartVariantLine(t *testing.T) {
	db := setupCartTestDB(t)

	cart := seedCart(t, db, uuid.New(), enums.CartStatusActive)
	variant := seedVariantRow(t, db, 3.00)
	seedItem(t, db, cart.ID, variant.ID, 1, 3.00)

	dup := &models.CartItem{
		ID:                uuid.New(),
		CartID:            cart.ID,
		VariantID:         variant.ID,
		Quantity:          1,
		UnitPriceSnapshot: decimal.NewFromFloat(3.00),
	}
	assert.Error(t, db.Create(dup).Error)
}

func TestRepositoryFindActiveWithDetails(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	cart := seedCart(t, db, userID, enums.CartStatusActive)
	variant := seedVariantRow(t, db, 15.25)
	seedItem(t, db, cart.ID, variant.ID, 2, 15.25)

	found, err := repo.FindActiveWithDetails(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.NotNil(t, found.Items[0].Variant)
	assert.Equal(t, variant.SKU, found.Items[0].Variant.SKU)
	require.NotNil(t, found.Items[0].Variant.Product)
	assert.Equal(t, "Canvas Tote", found.Items[0].Variant.Product.Name)
}
