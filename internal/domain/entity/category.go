package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Category groups products. ParentID links categories into a per-business tree.
type Category struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"business_id"`
	ParentID    *uuid.UUID  `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Description *string     `gorm:"type:text" json:"description,omitempty"`
	Status      enum.Status `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"-"`
	Parent   *Category `gorm:"foreignKey:ParentID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new category
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
