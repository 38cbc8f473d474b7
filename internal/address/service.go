package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address so
// lookups and uniqueness behave the same regardless of how the user typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpsertInput carries the address fields written on an upsert. The type slot
// comes from the URL, not the body.
type UpsertInput struct {
	FullName    string
	Phone       *string
	Line1       string
	Line2       *string
	City        string
	State       string
	PostalCode  string
	CountryCode string
}

// Service exposes saved-address operations.
type Service interface {
	UpsertByType(ctx context.Context, userID uuid.UUID, rawType string, input UpsertInput) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	DeleteByType(ctx context.Context, userID uuid.UUID, rawType string) error
}

type service struct {
	repo Repository
}

// NewService builds an address service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

// UpsertByType writes the user's address for the given slot. The write is
// last-write-wins: an existing row of the same type is overwritten in place.
func (s *service) UpsertByType(ctx context.Context, userID uuid.UUID, rawType string, input UpsertInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	addrType, err := enums.ParseAddressType(rawType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address type must be billing, shipping or other").
			WithDetails(map[string]string{"type": rawType})
	}
	if input.FullName == "" || input.Line1 == "" || input.City == "" || input.State == "" || input.PostalCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name, line1, city, state and postal_code are required")
	}
	if input.CountryCode == "" {
		input.CountryCode = "US"
	}

	row, err := s.repo.FindByUserAndType(ctx, userID, addrType)
	switch {
	case err == nil:
		// keep the row id stable across rewrites
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = &models.Address{UserID: userID, Type: addrType}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}

	row.FullName = input.FullName
	row.Phone = input.Phone
	row.Line1 = input.Line1
	row.Line2 = input.Line2
	row.City = input.City
	row.State = input.State
	row.PostalCode = input.PostalCode
	row.CountryCode = input.CountryCode

	saved, err := s.repo.Save(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
	}
	return saved, nil
}

// ListByUser returns all of the user's saved addresses.
func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

// DeleteByType removes the user's address for the slot; deleting an absent
// slot is a no-op.
func (s *service) DeleteByType(ctx context.Context, userID uuid.UUID, rawType string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	addrType, err := enums.ParseAddressType(rawType)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address type must be billing, shipping or other")
	}
	if err := s.repo.DeleteByUserAndType(ctx, userID, addrType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}
