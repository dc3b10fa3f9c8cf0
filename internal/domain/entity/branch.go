package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Branch is a physical sales location of a business.
type Branch struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_branches_business_name" json:"business_id"`
	Name       string      `gorm:"size:100;not null;uniqueIndex:idx_branches_business_name" json:"name"`
	Address    *string     `gorm:"type:text" json:"address,omitempty"`
	Phone      *string     `gorm:"size:20" json:"phone,omitempty"`
	Email      *string     `gorm:"size:100" json:"email,omitempty"`
	Status     enum.Status `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new branch
func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Branch model
func (Branch) TableName() string {
	return "branches"
}
