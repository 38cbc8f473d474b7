package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// OrderRepository defines the persistence surface required by the order
// service.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, cancelledAt *time.Time) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	RevenueTotal(ctx context.Context) (decimal.Decimal, error)
}
