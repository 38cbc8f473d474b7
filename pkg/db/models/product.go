package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is the catalog entry shoppers browse. Purchasable units are its
// variants; the product row itself carries no price.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	BrandID     *uuid.UUID       `gorm:"column:brand_id;type:uuid"`
	Name        string           `gorm:"column:name;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Description *string          `gorm:"column:description"`
	Tags        pq.StringArray   `gorm:"column:tags;type:text[]"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Category    *Category        `gorm:"foreignKey:CategoryID"`
	Brand       *Brand           `gorm:"foreignKey:BrandID"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
