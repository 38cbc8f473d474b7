package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// productFinder is the slice of the catalog the wishlist needs.
type productFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ItemView is one saved product as returned to clients.
type ItemView struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	ProductSlug string    `json:"product_slug"`
	BrandName   *string   `json:"brand_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	AddedAt     time.Time `json:"added_at"`
}

// Service exposes wishlist operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemView, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo     Repository
	products productFinder
}

// NewService builds the wishlist service.
func NewService(repo Repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

// List returns the user's saved products.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemView, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		view := ItemView{
			ProductID: item.ProductID,
			AddedAt:   item.CreatedAt,
		}
		if item.Product != nil {
			view.ProductName = item.Product.Name
			view.ProductSlug = item.Product.Slug
			view.IsActive = item.Product.IsActive
			if item.Product.Brand != nil {
				view.BrandName = &item.Product.Brand.Name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Add saves a product for the user. Saving an already saved product is a
// no-op rather than an error.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.products.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	item := &models.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
	}
	if err := s.repo.Add(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "idx_wishlist_user_product") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist item")
	}
	return nil
}

// Remove drops a product from the user's wishlist.
func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	removed, err := s.repo.Remove(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the wishlist")
	}
	return nil
}
