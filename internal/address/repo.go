package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository defines the persistence surface for saved addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserAndType(ctx context.Context, userID uuid.UUID, addrType enums.AddressType) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Save(ctx context.Context, address *models.Address) (*models.Address, error)
	DeleteByUserAndType(ctx context.Context, userID uuid.UUID, addrType enums.AddressType) error
}

// GormRepository persists addresses via gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
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

// FindByUserAndType loads the single address a user keeps per type.
func (r *GormRepository) FindByUserAndType(ctx context.Context, userID uuid.UUID, addrType enums.AddressType) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, addrType).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUser returns all addresses for the user, billing first.
func (r *GormRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("type ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Save inserts or updates an address row.
func (r *GormRepository) Save(ctx context.Context, address *models.Address) (*models.Address, error) {
	if err := r.db.WithContext(ctx).Save(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteByUserAndType removes the user's address of the given type.
func (r *GormRepository) DeleteByUserAndType(ctx context.Context, userID uuid.UUID, addrType enums.AddressType) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, addrType).
		Delete(&models.Address{}).Error
}
