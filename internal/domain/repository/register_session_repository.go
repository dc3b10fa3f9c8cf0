package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// SessionFilter narrows register session listings
type SessionFilter struct {
	BranchID *uuid.UUID
	UserID   *uuid.UUID
	Status   enum.SessionStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// RegisterSessionRepository defines the interface for register session data operations
type RegisterSessionRepository interface {
	Create(ctx context.Context, session *entity.RegisterSession) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.RegisterSession, error)
	// GetByIDForUpdate reads the session with a row lock held until the transaction ends.
	GetByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*entity.RegisterSession, error)
	GetOpenByBranch(ctx context.Context, businessID, branchID uuid.UUID) (*entity.RegisterSession, error)
	ListOpenByBranch(ctx context.Context, businessID, branchID uuid.UUID) ([]entity.RegisterSession, error)
	CountOpenByBranch(ctx context.Context, businessID uuid.UUID, branchIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	Update(ctx context.Context, session *entity.RegisterSession) error
	List(ctx context.Context, businessID uuid.UUID, filter SessionFilter, params *pagination.PaginationParams) ([]entity.RegisterSession, int64, error)
}
