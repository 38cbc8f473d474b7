package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the storefront's category tree.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	Name      string     `gorm:"column:name;not null"`
	Slug      string     `gorm:"column:slug;not null;uniqueIndex"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
