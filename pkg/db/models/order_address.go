package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderAddress is the address snapshot captured when an order is placed.
// Edits to the user's saved addresses never reach these rows.
type OrderAddress struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	AddressType enums.AddressType `gorm:"column:address_type;type:address_type;not null"`
	FullName    string            `gorm:"column:full_name;not null"`
	Phone       *string           `gorm:"column:phone"`
	Line1       string            `gorm:"column:line1;not null"`
	Line2       *string           `gorm:"column:line2"`
	City        string            `gorm:"column:city;not null"`
	State       string            `gorm:"column:state;not null"`
	PostalCode  string            `gorm:"column:postal_code;not null"`
	CountryCode string            `gorm:"column:country_code;not null;default:'US'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
