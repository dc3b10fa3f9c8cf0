package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Business is the tenant root. Every other entity hangs off a business_id.
type Business struct {
	ID                 uuid.UUID               `gorm:"type:uuid;primary_key" json:"id"`
	Name               string                  `gorm:"size:255;not null" json:"name"`
	TaxID              *string                 `gorm:"size:20" json:"tax_id,omitempty"`
	Email              *string                 `gorm:"size:100" json:"email,omitempty"`
	Phone              *string                 `gorm:"size:20" json:"phone,omitempty"`
	Address            *string                 `gorm:"type:text" json:"address,omitempty"`
	SubscriptionPlan   enum.SubscriptionPlan   `gorm:"size:20;not null;default:'basic'" json:"subscription_plan"`
	SubscriptionStatus enum.SubscriptionStatus `gorm:"size:20;not null;default:'trial'" json:"subscription_status"`
	SubscriptionExpiry *time.Time              `json:"subscription_expiry,omitempty"`
	Status             enum.Status             `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`

	Branches []Branch `gorm:"foreignKey:BusinessID" json:"branches,omitempty"`
}

// BeforeCreate generates a UUID before creating a new business
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Business model
func (Business) TableName() string {
	return "businesses"
}

// IsActive reports whether the business account itself is enabled.
func (b *Business) IsActive() bool {
	return b.Status == enum.StatusActive
}

// SubscriptionExpired reports whether the paid or trial period is over at now.
func (b *Business) SubscriptionExpired(now time.Time) bool {
	if !b.SubscriptionStatus.AllowsAccess() {
		return true
	}
	return b.SubscriptionExpiry != nil && now.After(*b.SubscriptionExpiry)
}
