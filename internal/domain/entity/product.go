package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable item. Combo products carry Components instead of
// their own meaningful stock.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_products_business_sku" json:"business_id"`
	CategoryID   *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name         string          `gorm:"size:255;not null;index" json:"name"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	SKU          string          `gorm:"column:sku;size:50;not null;uniqueIndex:idx_products_business_sku" json:"sku"`
	Barcode      *string         `gorm:"size:50;index" json:"barcode,omitempty"`
	UnitType     enum.UnitType   `gorm:"size:20;not null;default:'unit'" json:"unit_type"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Cost         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"current_stock"`
	MinStock     decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"min_stock"`
	Status       enum.Status     `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Business   *Business      `gorm:"foreignKey:BusinessID" json:"-"`
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Components []ProductCombo `gorm:"foreignKey:ComboID" json:"components,omitempty"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

func (p *Product) IsCombo() bool {
	return p.UnitType == enum.UnitTypeCombo
}

func (p *Product) IsActive() bool {
	return p.Status == enum.StatusActive
}

// IsLowStock reports whether stock has fallen to the reorder point.
func (p *Product) IsLowStock() bool {
	return !p.IsCombo() && p.CurrentStock.LessThanOrEqual(p.MinStock)
}

// ProductCombo says how many units of ProductID one unit of ComboID consumes.
type ProductCombo struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ComboID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"combo_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates a UUID before creating a new combo row
func (c *ProductCombo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ProductCombo model
func (ProductCombo) TableName() string {
	return "product_combos"
}
