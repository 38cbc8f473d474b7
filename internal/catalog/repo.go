package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// GormRepository exposes catalog reads over gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx}
}

// FindVariantByID loads a variant row by primary key.
func (r *GormRepository) FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindVariantWithProduct loads a variant together with its parent product.
func (r *GormRepository) FindVariantWithProduct(ctx context.Context, id uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	variant, err := r.FindVariantByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", variant.ProductID).First(&product).Error; err != nil {
		return nil, nil, err
	}
	return variant, &product, nil
}

// FindProductByID loads a product with its variants, category and brand.
func (r *GormRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Category").
		Preload("Brand").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns active products matching the filter, newest first.
func (r *GormRepository) ListProducts(ctx context.Context, filter ProductFilter, limit int, cursor *pagination.Cursor) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Brand").
		Where("is_active = ?", true)

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
