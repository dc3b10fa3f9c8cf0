package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"gorm.io/gorm"
)

// User is an operator account inside a business, optionally pinned to a branch.
type User struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID uuid.UUID   `gorm:"type:uuid;not null;index" json:"business_id"`
	BranchID   *uuid.UUID  `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	FirstName  string      `gorm:"size:100;not null" json:"first_name"`
	LastName   string      `gorm:"size:100" json:"last_name"`
	Username   string      `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email      string      `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password   string      `gorm:"size:255;not null" json:"-"`
	Role       enum.Role   `gorm:"size:20;not null;default:'cashier'" json:"role"`
	Status     enum.Status `gorm:"size:20;not null;default:'active'" json:"status"`
	LastLogin  *time.Time  `json:"last_login,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Business    *Business        `gorm:"foreignKey:BusinessID" json:"-"`
	Branch      *Branch          `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Permissions []UserPermission `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsActive() bool {
	return u.Status == enum.StatusActive
}

// Capabilities returns the per-user overrides when present, otherwise the role defaults.
// Permissions must be preloaded for overrides to apply.
func (u *User) Capabilities() enum.CapabilitySet {
	if len(u.Permissions) == 0 {
		return enum.NewCapabilitySet(u.Role.DefaultCapabilities()...)
	}
	names := make([]string, len(u.Permissions))
	for i, p := range u.Permissions {
		names[i] = p.Permission
	}
	return enum.CapabilitySetFromStrings(names)
}

// UserPermission is one capability granted to a user, overriding the role default.
type UserPermission struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_permissions_user_perm" json:"user_id"`
	Permission string    `gorm:"size:50;not null;uniqueIndex:idx_user_permissions_user_perm" json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new permission row
func (p *UserPermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the UserPermission model
func (UserPermission) TableName() string {
	return "user_permissions"
}
