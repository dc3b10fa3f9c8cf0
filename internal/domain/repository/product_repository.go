package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductFilter contains filtering parameters for product queries
type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	Status     enum.Status
	UnitType   enum.UnitType
}

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Product, error)
	// GetByIDs retrieves multiple products with their combo components in one query
	GetByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, businessID uuid.UUID, filter ProductFilter, params *pagination.PaginationParams) ([]entity.Product, int64, error)
	GetLowStock(ctx context.Context, businessID uuid.UUID) ([]entity.Product, error)
	Count(ctx context.Context, businessID uuid.UUID) (int64, error)
	CountActive(ctx context.Context, businessID uuid.UUID) (int64, error)
	CountLowStock(ctx context.Context, businessID uuid.UUID) (int64, error)
	CountByCategory(ctx context.Context, businessID, categoryID uuid.UUID) (int64, error)
	// ActiveCountsByCategory returns the number of active products per category id.
	ActiveCountsByCategory(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]int64, error)
	// ReplaceComponents deletes the combo's component rows and inserts comps.
	ReplaceComponents(ctx context.Context, comboID uuid.UUID, comps []entity.ProductCombo) error
	// IsComponent reports whether any combo lists the product as a component.
	IsComponent(ctx context.Context, productID uuid.UUID) (bool, error)
	// AdjustStock adds delta to current_stock. A negative delta only applies when
	// the stock covers it; (false, nil) means it did not.
	AdjustStock(ctx context.Context, businessID, id uuid.UUID, delta decimal.Decimal) (bool, error)
}

// MovementFilter bounds a product's ledger listing
type MovementFilter struct {
	From *time.Time
	To   *time.Time
}

// InventoryMovementRepository defines the append-only stock ledger
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByProduct(ctx context.Context, businessID, productID uuid.UUID, filter MovementFilter, params *pagination.CursorParams) ([]entity.InventoryMovement, error)
	// SumByProduct returns the signed total of every movement for the product.
	SumByProduct(ctx context.Context, businessID, productID uuid.UUID) (decimal.Decimal, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	// ListAll returns every category of the business ordered by name.
	ListAll(ctx context.Context, businessID uuid.UUID) ([]entity.Category, error)
	CountChildren(ctx context.Context, businessID, id uuid.UUID) (int64, error)
	// SiblingNameExists checks name uniqueness under parentID, ignoring excludeID.
	SiblingNameExists(ctx context.Context, businessID uuid.UUID, parentID *uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
}
