package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Address is a user's saved address. The (user_id, type) pair is unique, so a
// user keeps at most one billing, one shipping and one other address and
// writes replace the previous row.
type Address struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_addresses_user_type"`
	Type        enums.AddressType `gorm:"column:type;type:address_type;not null;uniqueIndex:idx_addresses_user_type"`
	FullName    string            `gorm:"column:full_name;not null"`
	Phone       *string           `gorm:"column:phone"`
	Line1       string            `gorm:"column:line1;not null"`
	Line2       *string           `gorm:"column:line2"`
	City        string            `gorm:"column:city;not null"`
	State       string            `gorm:"column:state;not null"`
	PostalCode  string            `gorm:"column:postal_code;not null"`
	CountryCode string            `gorm:"column:country_code;not null;default:'US'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
