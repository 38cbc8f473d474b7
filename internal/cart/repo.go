package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new cart row.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.Status == "" {
		cart.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindActiveByUser loads the user's active cart with its items.
func (r *Repository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindActiveWithDetails loads the active cart with variant, product, category
// and brand rows attached for the cart projection.
func (r *Repository) FindActiveWithDetails(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Variant").
		Preload("Items.Variant.Product").
		Preload("Items.Variant.Product.Category").
		Preload("Items.Variant.Product.Brand").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// MarkStatus flips the cart's status, recording the conversion time when given.
func (r *Repository) MarkStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus, convertedAt *time.Time) error {
	updates := map[string]any{"status": status}
	if convertedAt != nil {
		updates["converted_at"] = *convertedAt
	}
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(updates).Error
}

// FindItemForUpdate loads the (cart, variant) line and locks it for the
// duration of the surrounding transaction. The lock keeps concurrent merges of
// the same line serialized; sqlite serializes writers on its own, so the
// clause is only issued against postgres.
func (r *Repository) FindItemForUpdate(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item models.CartItem
	err := query.
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByIDForUser loads an item together with its cart, restricted to
// carts owned by the user.
func (r *Repository) FindItemByIDForUser(ctx context.Context, itemID, userID uuid.UUID) (*models.CartItem, *models.Cart, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, nil, err
	}

	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("id = ?", item.CartID).First(&cart).Error; err != nil {
		return nil, nil, err
	}
	return &item, &cart, nil
}

// CreateItem inserts a new cart item.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// SaveItem persists changes to an existing cart item.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes a single cart item.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.CartItem{}).Error
}

// DeleteItemsByCart removes every item in the cart.
func (r *Repository) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// ReplaceItems atomically swaps the cart's items for the provided set.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].CartID = cartID
	}
	return tx.Create(&items).Error
}
