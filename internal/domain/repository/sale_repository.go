package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/pagination"
)

// SaleFilter narrows sale listings and report windows
type SaleFilter struct {
	BranchID          *uuid.UUID
	UserID            *uuid.UUID
	CustomerID        *uuid.UUID
	RegisterSessionID *uuid.UUID
	DateFrom          *time.Time
	DateTo            *time.Time
	PaymentMethod     enum.PaymentMethod
	PaymentStatus     enum.PaymentStatus
}

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	// Create inserts the sale and its items.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Sale, error)
	// GetByIDForUpdate reads the sale with its items under a row lock.
	GetByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*entity.Sale, error)
	MarkCancelled(ctx context.Context, businessID, id uuid.UUID, at time.Time) error
	List(ctx context.Context, businessID uuid.UUID, filter SaleFilter, params *pagination.PaginationParams) ([]entity.Sale, int64, error)
	// FindAll returns every sale matching filter, oldest first, without items.
	FindAll(ctx context.Context, businessID uuid.UUID, filter SaleFilter) ([]entity.Sale, error)
	// RecentByCustomer returns the customer's latest sales without items.
	RecentByCustomer(ctx context.Context, businessID, customerID uuid.UUID, limit int) ([]entity.Sale, error)
}
