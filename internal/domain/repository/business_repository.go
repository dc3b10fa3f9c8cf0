package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// BusinessRepository defines the interface for business (tenant root) data operations
type BusinessRepository interface {
	Create(ctx context.Context, business *entity.Business) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error)
	Update(ctx context.Context, business *entity.Business) error
}

// BranchFilter narrows branch listings
type BranchFilter struct {
	Search string
	Status enum.Status
	// BranchID limits the listing to one branch
	BranchID *uuid.UUID
}

// BranchRepository defines the interface for branch data operations.
// Every method is scoped to a single business.
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Branch, error)
	GetByName(ctx context.Context, businessID uuid.UUID, name string) (*entity.Branch, error)
	Update(ctx context.Context, branch *entity.Branch) error
	List(ctx context.Context, businessID uuid.UUID, filter BranchFilter, params *pagination.PaginationParams) ([]entity.Branch, int64, error)
	Count(ctx context.Context, businessID uuid.UUID) (int64, error)
}
