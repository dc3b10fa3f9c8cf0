package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryMovement is an append-only stock ledger entry. Quantity is signed.
type InventoryMovement struct {
	ID           uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"business_id"`
	ProductID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_inventory_movements_product_created" json:"product_id"`
	UserID       *uuid.UUID        `gorm:"type:uuid" json:"user_id,omitempty"`
	MovementType enum.MovementType `gorm:"size:20;not null" json:"movement_type"`
	Quantity     decimal.Decimal   `gorm:"type:decimal(12,3);not null" json:"quantity"`
	ReferenceID  *uuid.UUID        `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Notes        *string           `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time         `gorm:"index:idx_inventory_movements_product_created" json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates a UUID before creating a new movement
func (m *InventoryMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InventoryMovement model
func (InventoryMovement) TableName() string {
	return "inventory_movements"
}
