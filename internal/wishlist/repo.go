package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository defines persistence for saved products.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
	Add(ctx context.Context, item *models.WishlistItem) error
	Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// GormRepository persists wishlist items via gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided DB.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ListByUser loads the user's saved products, newest first.
func (r *GormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Product").
		Preload("Product.Brand").
		Preload("Product.Category").
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Add inserts a saved-product row.
func (r *GormRepository) Add(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Remove deletes the saved-product row and reports whether one existed.
func (r *GormRepository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
