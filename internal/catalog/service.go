package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ProductFilter narrows the product listing.
type ProductFilter struct {
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	Search     string
}

// ProductPage is one page of the product listing plus the follow-up cursor.
type ProductPage struct {
	Products   []models.Product
	NextCursor string
}

// Service exposes catalog reads and the variant resolver used by carts and
// orders.
type Service interface {
	ResolveActiveVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error)
	GetProductDetail(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, limit int, cursor string) (*ProductPage, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ResolveActiveVariant returns the variant and its product when both are
// active. A missing or inactive variant resolves to NotFound so callers treat
// retired SKUs the same as never-existed ones.
func (s *service) ResolveActiveVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	if variantID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}

	variant, product, err := s.repo.FindVariantWithProduct(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if !variant.IsActive || !product.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return variant, product, nil
}

// GetProductDetail loads one product with variants for the detail page.
func (s *service) GetProductDetail(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// ListProducts pages through active products, newest first.
func (s *service) ListProducts(ctx context.Context, filter ProductFilter, limit int, cursor string) (*ProductPage, error) {
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit = pagination.NormalizeLimit(limit)
	rows, err := s.repo.ListProducts(ctx, filter, pagination.LimitWithBuffer(limit), parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := &ProductPage{Products: rows}
	if len(rows) > limit {
		page.Products = rows[:limit]
		last := page.Products[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
