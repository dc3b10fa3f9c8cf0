package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Customer, error)
	GetByEmail(ctx context.Context, businessID uuid.UUID, email string) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	// List returns customers with page-based pagination, filtered by name, email or phone.
	List(ctx context.Context, businessID uuid.UUID, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error)
	Search(ctx context.Context, businessID uuid.UUID, q string, limit int) ([]entity.Customer, error)
	GetByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]entity.Customer, error)
	Count(ctx context.Context, businessID uuid.UUID) (int64, error)
}
