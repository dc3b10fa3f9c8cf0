package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// UserFilter narrows user listings
type UserFilter struct {
	Search   string
	Role     enum.Role
	Status   enum.Status
	BranchID *uuid.UUID
}

// UserRepository defines the interface for user data operations.
// Username and email lookups are global since both are unique across businesses.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.User, error)
	// FindByID loads a user regardless of business, for token refresh.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, businessID uuid.UUID, filter UserFilter, params *pagination.PaginationParams) ([]entity.User, int64, error)
	ListByBranch(ctx context.Context, businessID, branchID uuid.UUID) ([]entity.User, error)
	CountByBranch(ctx context.Context, businessID uuid.UUID, branchIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	CountActive(ctx context.Context, businessID uuid.UUID) (int64, error)
	CountActiveAdmins(ctx context.Context, businessID uuid.UUID) (int64, error)
	// ReplacePermissions swaps the user's capability overrides for perms.
	ReplacePermissions(ctx context.Context, userID uuid.UUID, perms []string) error
}

// PasswordResetTokenRepository defines the interface for password reset token operations
type PasswordResetTokenRepository interface {
	Create(ctx context.Context, token *entity.PasswordResetToken) error
	GetByHash(ctx context.Context, hash string) (*entity.PasswordResetToken, error)
	MarkAsUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) error
}
