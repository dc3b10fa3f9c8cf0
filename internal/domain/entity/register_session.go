package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RegisterSession is one cash-drawer shift on a branch. At most one session
// per branch is open; the partial unique index backs that on the database.
type RegisterSession struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"business_id"`
	BranchID       uuid.UUID          `gorm:"type:uuid;not null;index;uniqueIndex:idx_register_sessions_open_branch,where:status = 'open'" json:"branch_id"`
	UserID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	Status         enum.SessionStatus `gorm:"size:20;not null;default:'open'" json:"status"`
	OpeningTime    time.Time          `gorm:"not null" json:"opening_time"`
	ClosingTime    *time.Time         `json:"closing_time,omitempty"`
	InitialCash    decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"initial_cash"`
	FinalCash      *decimal.Decimal   `gorm:"type:decimal(12,2)" json:"final_cash,omitempty"`
	TotalCashSales decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"total_cash_sales"`
	TotalCardSales decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"total_card_sales"`
	ExpectedCash   *decimal.Decimal   `gorm:"type:decimal(12,2)" json:"expected_cash,omitempty"`
	CashDifference *decimal.Decimal   `gorm:"type:decimal(12,2)" json:"cash_difference,omitempty"`
	Notes          *string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"-"`
	Branch   *Branch   `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate generates a UUID before creating a new session
func (s *RegisterSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the RegisterSession model
func (RegisterSession) TableName() string {
	return "register_sessions"
}

func (s *RegisterSession) IsOpen() bool {
	return s.Status == enum.SessionStatusOpen
}
