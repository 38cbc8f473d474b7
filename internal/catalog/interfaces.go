package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines the persistence surface required by the catalog service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindVariantWithProduct(ctx context.Context, id uuid.UUID) (*models.ProductVariant, *models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, limit int, cursor *pagination.Cursor) ([]models.Product, error)
}
