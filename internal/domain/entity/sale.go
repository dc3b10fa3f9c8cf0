package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is one recorded transaction. Creation and cancellation are its only mutations.
type Sale struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"business_id"`
	BranchID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"branch_id"`
	UserID            uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	CustomerID        *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	RegisterSessionID uuid.UUID          `gorm:"type:uuid;not null;index" json:"register_session_id"`
	PaymentMethod     enum.PaymentMethod `gorm:"size:20;not null" json:"payment_method"`
	PaymentStatus     enum.PaymentStatus `gorm:"size:20;not null;default:'completed';index" json:"payment_status"`
	Subtotal          decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"-"`
	TaxAmount         decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"-"`
	DiscountAmount    decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"-"`
	TotalAmount       decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"-"`
	Notes             *string            `gorm:"type:text" json:"notes,omitempty"`
	CancelledAt       *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`

	Business        *Business        `gorm:"foreignKey:BusinessID" json:"-"`
	Branch          *Branch          `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	User            *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Customer        *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	RegisterSession *RegisterSession `gorm:"foreignKey:RegisterSessionID" json:"-"`
	Items           []SaleItem       `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

// MarshalJSON renders money with two decimals
func (s Sale) MarshalJSON() ([]byte, error) {
	type Alias Sale
	return json.Marshal(&struct {
		Alias
		Subtotal       string `json:"subtotal"`
		TaxAmount      string `json:"tax_amount"`
		DiscountAmount string `json:"discount_amount"`
		TotalAmount    string `json:"total_amount"`
	}{
		Alias:          Alias(s),
		Subtotal:       s.Subtotal.StringFixed(2),
		TaxAmount:      s.TaxAmount.StringFixed(2),
		DiscountAmount: s.DiscountAmount.StringFixed(2),
		TotalAmount:    s.TotalAmount.StringFixed(2),
	})
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

func (s *Sale) IsCancelled() bool {
	return s.PaymentStatus == enum.PaymentCancelled
}

// SaleItem is an immutable line of a sale.
type SaleItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity       decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale item
func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleItem model
func (SaleItem) TableName() string {
	return "sale_items"
}
