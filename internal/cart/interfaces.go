package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindActiveWithDetails(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	MarkStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus, convertedAt *time.Time) error
	FindItemForUpdate(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	FindItemByIDForUser(ctx context.Context, itemID, userID uuid.UUID) (*models.CartItem, *models.Cart, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
}
