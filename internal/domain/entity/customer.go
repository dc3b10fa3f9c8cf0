package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Customer is a buyer record. Purchase statistics are derived from sales on read.
type Customer struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_customers_business_email" json:"business_id"`
	FirstName  string      `gorm:"size:100;not null" json:"first_name"`
	LastName   string      `gorm:"size:100" json:"last_name"`
	Email      *string     `gorm:"size:100;uniqueIndex:idx_customers_business_email" json:"email,omitempty"`
	Phone      *string     `gorm:"size:20" json:"phone,omitempty"`
	TaxID      *string     `gorm:"size:20" json:"tax_id,omitempty"`
	Address    *string     `gorm:"type:text" json:"address,omitempty"`
	Status     enum.Status `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
