package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubRepo struct {
	rows map[string]*models.Address // key: userID|type
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: map[string]*models.Address{}}
}

func key(userID uuid.UUID, addrType enums.AddressType) string {
	return userID.String() + "|" + addrType.String()
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByUserAndType(ctx context.Context, userID uuid.UUID, addrType enums.AddressType) (*models.Address, error) {
	row, ok := s.rows[key(userID, addrType)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var out []models.Address
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubRepo) Save(ctx context.Context, address *models.Address) (*models.Address, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	copied := *address
	s.rows[key(address.UserID, address.Type)] = &copied
	return address, nil
}

func (s *stubRepo) DeleteByUserAndType(ctx context.Context, userID uuid.UUID, addrType enums.AddressType) error {
	delete(s.rows, key(userID, addrType))
	return nil
}

func validInput() UpsertInput {
	return UpsertInput{
		FullName:   "Jamie Rivera",
		Line1:      "1 Main St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM  "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestUpsertByTypeCreatesThenOverwrites(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	userID := uuid.New()

	first, err := svc.UpsertByType(context.Background(), userID, "shipping", validInput())
	require.NoError(t, err)
	assert.Equal(t, enums.AddressTypeShipping, first.Type)
	assert.Equal(t, "1 Main St", first.Line1)

	second := validInput()
	second.Line1 = "99 Oak Ave"
	updated, err := svc.UpsertByType(context.Background(), userID, "shipping", second)
	require.NoError(t, err)

	// last write wins and the row id stays stable
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "99 Oak Ave", updated.Line1)

	rows, err := svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpsertByTypeCaseInsensitive(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	row, err := svc.UpsertByType(context.Background(), uuid.New(), "  BILLING ", validInput())
	require.NoError(t, err)
	assert.Equal(t, enums.AddressTypeBilling, row.Type)
}

func TestUpsertByTypeRejectsUnknownType(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	_, err = svc.UpsertByType(context.Background(), uuid.New(), "work", validInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpsertByTypeRequiresFields(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	input := validInput()
	input.City = ""
	_, err = svc.UpsertByType(context.Background(), uuid.New(), "shipping", input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpsertByTypeDefaultsCountry(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	row, err := svc.UpsertByType(context.Background(), uuid.New(), "other", validInput())
	require.NoError(t, err)
	assert.Equal(t, "US", row.CountryCode)
}

func TestDeleteByTypeIdempotent(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	userID := uuid.New()

	_, err = svc.UpsertByType(context.Background(), userID, "shipping", validInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByType(context.Background(), userID, "shipping"))
	require.NoError(t, svc.DeleteByType(context.Background(), userID, "shipping"))

	rows, err := svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
