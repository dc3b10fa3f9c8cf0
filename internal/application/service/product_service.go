package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/sangkips/pos-api/pkg/utils"
	"github.com/sangkips/pos-api/pkg/validation"
	"github.com/shopspring/decimal"
)

// ProductService handles catalog and stock operations
type ProductService struct {
	tx           repository.Transactor
	productRepo  repository.ProductRepository
	movementRepo repository.InventoryMovementRepository
	categoryRepo repository.CategoryRepository
	ledger       stockLedger
	plans        planGuard
	pos          config.POSConfig
}

// NewProductService creates a new product service
func NewProductService(
	tx repository.Transactor,
	businessRepo repository.BusinessRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.InventoryMovementRepository,
	categoryRepo repository.CategoryRepository,
	limits config.PlanLimits,
	pos config.POSConfig,
) *ProductService {
	return &ProductService{
		tx:           tx,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		categoryRepo: categoryRepo,
		ledger:       stockLedger{products: productRepo, movements: movementRepo},
		plans:        planGuard{limits: limits, businessRepo: businessRepo},
		pos:          pos,
	}
}

// ComponentInput is one combo component
type ComponentInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ProductInput is the create and update payload. Nil optional fields keep
// their defaults on create and their current values on update.
type ProductInput struct {
	Name         string           `json:"name" validate:"required,max=255"`
	Description  *string          `json:"description"`
	SKU          *string          `json:"sku" validate:"omitempty,max=50"`
	Barcode      *string          `json:"barcode" validate:"omitempty,max=50"`
	CategoryID   *uuid.UUID       `json:"category_id"`
	UnitType     enum.UnitType    `json:"unit_type" validate:"required,oneof=unit weight combo"`
	Price        *decimal.Decimal `json:"price" validate:"required"`
	Cost         *decimal.Decimal `json:"cost"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	CurrentStock *decimal.Decimal `json:"current_stock"`
	MinStock     *decimal.Decimal `json:"min_stock"`
	Status       enum.Status      `json:"status" validate:"omitempty,oneof=active inactive"`
	Components   []ComponentInput `json:"components" validate:"dive"`
}

// validateAmounts rejects negative money and stock figures.
func (in *ProductInput) validateAmounts() error {
	checks := []struct {
		field string
		value *decimal.Decimal
	}{
		{"price", in.Price},
		{"cost", in.Cost},
		{"tax_rate", in.TaxRate},
		{"current_stock", in.CurrentStock},
		{"min_stock", in.MinStock},
	}
	for _, c := range checks {
		if c.value != nil && c.value.IsNegative() {
			return apperror.NewInvalidValue(c.field, strings.ReplaceAll(c.field, "_", " ")+" cannot be negative")
		}
	}
	if in.TaxRate != nil && in.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewInvalidValue("tax_rate", "tax rate cannot exceed 100")
	}
	return nil
}

// ListProducts returns products ordered by name
func (s *ProductService) ListProducts(ctx context.Context, a actor.Context, filter repository.ProductFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Product], error) {
	params.Validate()
	products, total, err := s.productRepo.List(ctx, a.BusinessID, filter, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(products, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// GetProduct returns a product with its category and components
func (s *ProductService) GetProduct(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Product, error) {
	return s.getProduct(ctx, a, id)
}

// CreateProduct adds a product. Initial stock is recorded as an adjustment
// movement so the ledger always sums to current stock.
func (s *ProductService) CreateProduct(ctx context.Context, a actor.Context, input *ProductInput) (*entity.Product, error) {
	if err := a.Require(enum.CapManageProducts); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := input.validateAmounts(); err != nil {
		return nil, err
	}

	product := &entity.Product{
		BusinessID:  a.BusinessID,
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: optionalString(input.Description),
		Barcode:     optionalString(input.Barcode),
		UnitType:    input.UnitType,
		Price:       *input.Price,
		Cost:        decimal.Zero,
		TaxRate:     decimal.NewFromFloat(s.pos.DefaultTaxRate),
		MinStock:    decimal.NewFromInt(int64(s.pos.LowStockThreshold)),
		Status:      enum.StatusActive,
	}
	if input.Cost != nil {
		product.Cost = *input.Cost
	}
	if input.TaxRate != nil {
		product.TaxRate = *input.TaxRate
	}
	if input.MinStock != nil {
		product.MinStock = *input.MinStock
	}
	if input.Status != "" {
		product.Status = input.Status
	}
	if product.IsCombo() {
		product.MinStock = decimal.Zero
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		err := s.plans.check(ctx, a.BusinessID, s.plans.limits.Products, "Product", func() (int64, error) {
			return s.productRepo.Count(ctx, a.BusinessID)
		})
		if err != nil {
			return err
		}
		if err := s.ensureCategory(ctx, a, product.CategoryID); err != nil {
			return err
		}

		var comps []entity.ProductCombo
		if product.IsCombo() {
			if comps, err = s.validateComponents(ctx, a, uuid.Nil, input.Components); err != nil {
				return err
			}
		}

		if sku := optionalString(input.SKU); sku != nil {
			product.SKU = *sku
		} else {
			count, err := s.productRepo.Count(ctx, a.BusinessID)
			if err != nil {
				return err
			}
			product.SKU = utils.GenerateSKU(a.BusinessID, count)
		}

		if err := s.productRepo.Create(ctx, product); err != nil {
			return err
		}
		if product.IsCombo() {
			return s.productRepo.ReplaceComponents(ctx, product.ID, comps)
		}

		if input.CurrentStock != nil && input.CurrentStock.IsPositive() {
			_, err := s.ledger.apply(ctx, stockChange{
				BusinessID:  a.BusinessID,
				ProductID:   product.ID,
				ProductName: product.Name,
				UserID:      &a.UserID,
				Delta:       *input.CurrentStock,
				Type:        enum.MovementAdjustment,
				Notes:       "Initial stock",
			})
			return err
		}
		return nil
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperror.NewDuplicateName("A product with this SKU already exists")
	}
	if err != nil {
		return nil, err
	}
	return s.getProduct(ctx, a, product.ID)
}

// UpdateProduct updates catalog fields. Components of a combo are replaced
// wholesale; a changed current_stock goes through the stock ledger.
func (s *ProductService) UpdateProduct(ctx context.Context, a actor.Context, id uuid.UUID, input *ProductInput) (*entity.Product, error) {
	if err := a.Require(enum.CapManageProducts); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := input.validateAmounts(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := s.getProduct(ctx, a, id)
		if err != nil {
			return err
		}
		if err := s.ensureCategory(ctx, a, input.CategoryID); err != nil {
			return err
		}

		becomesCombo := !product.IsCombo() && input.UnitType == enum.UnitTypeCombo
		if becomesCombo {
			used, err := s.productRepo.IsComponent(ctx, product.ID)
			if err != nil {
				return err
			}
			if used {
				return apperror.NewInvalidComboComponent(product.Name + " is a component of another combo and cannot become a combo")
			}
		}
		staleStock := product.CurrentStock

		product.Name = strings.TrimSpace(input.Name)
		product.Description = optionalString(input.Description)
		product.Barcode = optionalString(input.Barcode)
		product.CategoryID = input.CategoryID
		product.Category = nil
		product.UnitType = input.UnitType
		product.Price = *input.Price
		if sku := optionalString(input.SKU); sku != nil {
			product.SKU = *sku
		}
		if input.Cost != nil {
			product.Cost = *input.Cost
		}
		if input.TaxRate != nil {
			product.TaxRate = *input.TaxRate
		}
		if input.MinStock != nil {
			product.MinStock = *input.MinStock
		}
		if input.Status != "" {
			product.Status = input.Status
		}

		if becomesCombo {
			product.MinStock = decimal.Zero
		}

		var comps []entity.ProductCombo
		if product.IsCombo() {
			if comps, err = s.validateComponents(ctx, a, product.ID, input.Components); err != nil {
				return err
			}
		}

		if err := s.productRepo.Update(ctx, product); err != nil {
			return err
		}
		// Switching away from combo clears the rows too.
		if err := s.productRepo.ReplaceComponents(ctx, product.ID, comps); err != nil {
			return err
		}

		// A combo holds no stock of its own; whatever was on hand is written off.
		if becomesCombo {
			if staleStock.IsPositive() {
				_, err := s.ledger.apply(ctx, stockChange{
					BusinessID:  a.BusinessID,
					ProductID:   product.ID,
					ProductName: product.Name,
					UserID:      &a.UserID,
					Delta:       staleStock.Neg(),
					Type:        enum.MovementAdjustment,
					Notes:       "Converted to combo",
				})
				return err
			}
			return nil
		}

		if input.CurrentStock != nil && !product.IsCombo() {
			delta := input.CurrentStock.Sub(product.CurrentStock)
			if !delta.IsZero() {
				_, err := s.ledger.apply(ctx, stockChange{
					BusinessID:  a.BusinessID,
					ProductID:   product.ID,
					ProductName: product.Name,
					UserID:      &a.UserID,
					Delta:       delta,
					Type:        enum.MovementAdjustment,
					Notes:       "Stock adjustment",
				})
				return err
			}
		}
		return nil
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperror.NewDuplicateName("A product with this SKU already exists")
	}
	if err != nil {
		return nil, err
	}
	return s.getProduct(ctx, a, id)
}

// validateComponents checks a combo's component list. Each component must be
// an existing non-combo product of the business with a positive quantity.
func (s *ProductService) validateComponents(ctx context.Context, a actor.Context, comboID uuid.UUID, input []ComponentInput) ([]entity.ProductCombo, error) {
	if len(input) == 0 {
		return nil, apperror.NewInvalidComboComponent("Combo products require at least one component")
	}

	ids := make([]uuid.UUID, 0, len(input))
	seen := make(map[uuid.UUID]bool, len(input))
	for _, c := range input {
		if !c.Quantity.IsPositive() {
			return nil, apperror.NewInvalidComboComponent("Component quantity must be greater than zero")
		}
		if comboID != uuid.Nil && c.ProductID == comboID {
			return nil, apperror.NewInvalidComboComponent("A combo cannot contain itself")
		}
		if seen[c.ProductID] {
			return nil, apperror.NewInvalidComboComponent("Component products must be unique")
		}
		seen[c.ProductID] = true
		ids = append(ids, c.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, a.BusinessID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	comps := make([]entity.ProductCombo, 0, len(input))
	for _, c := range input {
		p, ok := byID[c.ProductID]
		if !ok {
			return nil, apperror.NewInvalidComboComponent("Component product " + c.ProductID.String() + " does not exist")
		}
		if p.IsCombo() {
			return nil, apperror.NewInvalidComboComponent("Component " + p.Name + " cannot be a combo product")
		}
		comps = append(comps, entity.ProductCombo{ComboID: comboID, ProductID: p.ID, Quantity: c.Quantity})
	}
	return comps, nil
}

// DeactivateProduct marks a product inactive; products are never hard-deleted
func (s *ProductService) DeactivateProduct(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Product, error) {
	if err := a.Require(enum.CapManageProducts); err != nil {
		return nil, err
	}
	product, err := s.getProduct(ctx, a, id)
	if err != nil {
		return nil, err
	}
	product.Status = enum.StatusInactive
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateStockInput is a manual stock change
type UpdateStockInput struct {
	Quantity     decimal.Decimal   `json:"quantity"`
	MovementType enum.MovementType `json:"movement_type" validate:"required"`
	Notes        string            `json:"notes" validate:"max=500"`
}

// StockUpdateResult is the product after the change and the ledger entry
type StockUpdateResult struct {
	Product  *entity.Product           `json:"product"`
	Movement *entity.InventoryMovement `json:"movement"`
}

// UpdateStock records a signed manual movement and applies it to the product
// in one transaction. sale and cancelled movements are reserved for sales.
func (s *ProductService) UpdateStock(ctx context.Context, a actor.Context, id uuid.UUID, input *UpdateStockInput) (*StockUpdateResult, error) {
	if err := a.Require(enum.CapManageProducts); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !input.MovementType.IsManual() {
		return nil, apperror.NewInvalidValue("movement_type", "movement type must be adjustment, purchase or transfer")
	}
	if input.Quantity.IsZero() {
		return nil, apperror.NewInvalidValue("quantity", "quantity cannot be zero")
	}

	var movement *entity.InventoryMovement
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := s.getProduct(ctx, a, id)
		if err != nil {
			return err
		}
		if product.IsCombo() {
			return apperror.NewInvalidValue("product", "combo products do not hold their own stock")
		}
		movement, err = s.ledger.apply(ctx, stockChange{
			BusinessID:  a.BusinessID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UserID:      &a.UserID,
			Delta:       input.Quantity,
			Type:        input.MovementType,
			Notes:       strings.TrimSpace(input.Notes),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	product, err := s.getProduct(ctx, a, id)
	if err != nil {
		return nil, err
	}
	return &StockUpdateResult{Product: product, Movement: movement}, nil
}

// LowStock returns active products at or below their reorder point
func (s *ProductService) LowStock(ctx context.Context, a actor.Context) ([]entity.Product, error) {
	products, err := s.productRepo.GetLowStock(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []entity.Product{}
	}
	return products, nil
}

// Movements returns the product's ledger newest first
func (s *ProductService) Movements(ctx context.Context, a actor.Context, id uuid.UUID, filter repository.MovementFilter, params *pagination.CursorParams) (*pagination.CursorPaginatedResult[entity.InventoryMovement], error) {
	if _, err := s.getProduct(ctx, a, id); err != nil {
		return nil, err
	}
	params.Validate()
	if _, err := params.DecodeCursor(); err != nil {
		return nil, apperror.NewInvalidValue("cursor", "invalid cursor")
	}

	movements, err := s.movementRepo.ListByProduct(ctx, a.BusinessID, id, filter, params)
	if err != nil {
		return nil, err
	}
	pag, items := pagination.NewCursorPagination(movements, params.Limit,
		func(m entity.InventoryMovement) string { return m.ID.String() },
		func(m entity.InventoryMovement) time.Time { return m.CreatedAt },
	)
	return pagination.NewCursorPaginatedResult(items, pag), nil
}

func (s *ProductService) getProduct(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, a.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

func (s *ProductService) ensureCategory(ctx context.Context, a actor.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	category, err := s.categoryRepo.GetByID(ctx, a.BusinessID, *categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return apperror.NewInvalidValue("category_id", "Category does not exist")
	}
	return nil
}
