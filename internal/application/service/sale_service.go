package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/realtime"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/sangkips/pos-api/pkg/validation"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SaleService records and cancels sales
type SaleService struct {
	tx           repository.Transactor
	saleRepo     repository.SaleRepository
	sessionRepo  repository.RegisterSessionRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	ledger       stockLedger
	events       EventPublisher
}

// NewSaleService creates a new sale service
func NewSaleService(
	tx repository.Transactor,
	saleRepo repository.SaleRepository,
	sessionRepo repository.RegisterSessionRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.InventoryMovementRepository,
	customerRepo repository.CustomerRepository,
	events EventPublisher,
) *SaleService {
	if events == nil {
		events = NopPublisher()
	}
	return &SaleService{
		tx:           tx,
		saleRepo:     saleRepo,
		sessionRepo:  sessionRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		ledger:       stockLedger{products: productRepo, movements: movementRepo},
		events:       events,
	}
}

// SaleItemInput is one cart line. UnitPrice defaults to the product price.
type SaleItemInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleInput represents the input for creating a sale
type CreateSaleInput struct {
	BranchID          uuid.UUID          `json:"branch_id" validate:"required"`
	RegisterSessionID uuid.UUID          `json:"register_session_id" validate:"required"`
	CustomerID        *uuid.UUID         `json:"customer_id"`
	PaymentMethod     enum.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card transfer"`
	DiscountAmount    decimal.Decimal    `json:"discount_amount"`
	Notes             *string            `json:"notes"`
	Items             []SaleItemInput    `json:"items" validate:"dive"`
}

// validateItems checks quantities and prices line by line.
func (in *CreateSaleInput) validateItems() error {
	var fieldErrors []apperror.FieldError
	for i, item := range in.Items {
		if !item.Quantity.IsPositive() {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be greater than zero",
			})
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].unit_price", i),
				Message: "unit price cannot be negative",
			})
		}
	}
	if in.DiscountAmount.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "discount_amount", Message: "discount cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// CreateSale validates the cart, checks stock, prices the lines, persists the
// sale and decrements inventory in one transaction.
func (s *SaleService) CreateSale(ctx context.Context, a actor.Context, input *CreateSaleInput) (*entity.Sale, error) {
	if err := a.Require(enum.CapMakeSales); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, apperror.ErrEmptyCart
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := input.validateItems(); err != nil {
		return nil, err
	}
	if err := a.RequireBranch(input.BranchID); err != nil {
		return nil, err
	}

	var sale *entity.Sale
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessionRepo.GetByIDForUpdate(ctx, a.BusinessID, input.RegisterSessionID)
		if err != nil {
			return err
		}
		if session == nil || !session.IsOpen() || session.BranchID != input.BranchID {
			return apperror.ErrSessionNotOpen
		}

		if input.CustomerID != nil {
			customer, err := s.customerRepo.GetByID(ctx, a.BusinessID, *input.CustomerID)
			if err != nil {
				return err
			}
			if customer == nil {
				return apperror.NewNotFoundError("Customer")
			}
		}

		products, err := s.resolveProducts(ctx, a.BusinessID, input.Items)
		if err != nil {
			return err
		}
		if err := checkStock(input.Items, products); err != nil {
			return err
		}

		sale, err = priceSale(input, products)
		if err != nil {
			return err
		}
		sale.BusinessID = a.BusinessID
		sale.BranchID = session.BranchID
		sale.UserID = a.UserID
		sale.RegisterSessionID = session.ID

		if err := s.saleRepo.Create(ctx, sale); err != nil {
			return err
		}

		for _, item := range sale.Items {
			if err := s.moveStock(ctx, a, products[item.ProductID], item.Quantity.Neg(), enum.MovementSale, sale.ID, "Sale"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.getSale(ctx, a, sale.ID)
	if err != nil {
		return nil, err
	}
	publish(s.events, realtime.EventSaleCreated, a.BusinessID, &created.BranchID, created)
	return created, nil
}

// resolveProducts loads every product in the cart. Missing, foreign and
// inactive products all fail with ProductNotFound.
func (s *SaleService) resolveProducts(ctx context.Context, businessID uuid.UUID, items []SaleItemInput) (map[uuid.UUID]*entity.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, businessID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsActive() {
			return nil, apperror.ErrProductNotFound
		}
	}
	return byID, nil
}

// stockNeed is the total quantity a cart draws from one stocked product.
type stockNeed struct {
	product *entity.Product
	qty     decimal.Decimal
}

// checkStock sums what the cart draws from each stocked product, combos
// decomposed into their components, and compares it to current stock.
func checkStock(items []SaleItemInput, products map[uuid.UUID]*entity.Product) error {
	needs := make(map[uuid.UUID]*stockNeed)
	var order []uuid.UUID
	add := func(p *entity.Product, qty decimal.Decimal) {
		n, ok := needs[p.ID]
		if !ok {
			n = &stockNeed{product: p, qty: decimal.Zero}
			needs[p.ID] = n
			order = append(order, p.ID)
		}
		n.qty = n.qty.Add(qty)
	}

	for _, item := range items {
		p := products[item.ProductID]
		if !p.IsCombo() {
			add(p, item.Quantity)
			continue
		}
		if len(p.Components) == 0 {
			return apperror.NewInvalidComboComponent("Combo " + p.Name + " has no components")
		}
		for _, c := range p.Components {
			if c.Product == nil {
				return apperror.ErrProductNotFound
			}
			add(c.Product, item.Quantity.Mul(c.Quantity))
		}
	}

	for _, id := range order {
		n := needs[id]
		if n.product.CurrentStock.LessThan(n.qty) {
			return apperror.NewInsufficientStock(n.product.Name)
		}
	}
	return nil
}

// priceSale builds the sale and its lines. Line tax is rounded per line; the
// sale tax is the sum of line taxes.
func priceSale(input *CreateSaleInput, products map[uuid.UUID]*entity.Product) (*entity.Sale, error) {
	sale := &entity.Sale{
		CustomerID:    input.CustomerID,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: enum.PaymentCompleted,
		Notes:         optionalString(input.Notes),
	}

	rawSubtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, in := range input.Items {
		p := products[in.ProductID]
		unitPrice := p.Price
		if in.UnitPrice != nil {
			unitPrice = *in.UnitPrice
		}
		lineSubtotal := unitPrice.Mul(in.Quantity)
		tax := lineSubtotal.Mul(p.TaxRate).Div(hundred).Round(2)

		sale.Items = append(sale.Items, entity.SaleItem{
			ProductID:      p.ID,
			Quantity:       in.Quantity,
			UnitPrice:      unitPrice,
			TaxRate:        p.TaxRate,
			TaxAmount:      tax,
			DiscountAmount: decimal.Zero,
			TotalAmount:    lineSubtotal.Round(2).Add(tax),
		})
		rawSubtotal = rawSubtotal.Add(lineSubtotal)
		taxTotal = taxTotal.Add(tax)
	}

	sale.Subtotal = rawSubtotal.Round(2)
	sale.TaxAmount = taxTotal
	discount := input.DiscountAmount.Round(2)
	if discount.GreaterThan(sale.Subtotal.Add(sale.TaxAmount)) {
		return nil, apperror.NewInvalidValue("discount_amount", "discount cannot exceed the sale total")
	}
	sale.DiscountAmount = discount
	sale.TotalAmount = sale.Subtotal.Add(sale.TaxAmount).Sub(discount)
	return sale, nil
}

// moveStock applies a signed quantity of p to inventory. Combos are
// decomposed into their components; the combo row itself never moves.
func (s *SaleService) moveStock(ctx context.Context, a actor.Context, p *entity.Product, qty decimal.Decimal, typ enum.MovementType, saleID uuid.UUID, notes string) error {
	ref := saleID
	if !p.IsCombo() {
		_, err := s.ledger.apply(ctx, stockChange{
			BusinessID:  a.BusinessID,
			ProductID:   p.ID,
			ProductName: p.Name,
			UserID:      &a.UserID,
			Delta:       qty,
			Type:        typ,
			ReferenceID: &ref,
			Notes:       notes,
		})
		return err
	}
	for _, c := range p.Components {
		name := c.ProductID.String()
		if c.Product != nil {
			name = c.Product.Name
		}
		_, err := s.ledger.apply(ctx, stockChange{
			BusinessID:  a.BusinessID,
			ProductID:   c.ProductID,
			ProductName: name,
			UserID:      &a.UserID,
			Delta:       qty.Mul(c.Quantity),
			Type:        typ,
			ReferenceID: &ref,
			Notes:       notes + " (combo " + p.Name + ")",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CancelSale reverses a completed sale's inventory effect and marks it
// cancelled. Sales of a closed register cannot be cancelled, which keeps the
// persisted session totals in step with its sales.
func (s *SaleService) CancelSale(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Sale, error) {
	if err := a.Require(enum.CapManageSales); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetByIDForUpdate(ctx, a.BusinessID, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		if sale.IsCancelled() {
			return apperror.ErrAlreadyCancelled
		}

		session, err := s.sessionRepo.GetByID(ctx, a.BusinessID, sale.RegisterSessionID)
		if err != nil {
			return err
		}
		if session == nil || !session.IsOpen() {
			return apperror.NewSessionNotOpen("Sales of a closed register session cannot be cancelled")
		}

		for _, item := range sale.Items {
			if item.Product == nil {
				return apperror.ErrProductNotFound
			}
			if err := s.moveStock(ctx, a, item.Product, item.Quantity, enum.MovementCancelled, sale.ID, "Sale cancelled"); err != nil {
				return err
			}
		}
		return s.saleRepo.MarkCancelled(ctx, a.BusinessID, sale.ID, timeNow())
	})
	if err != nil {
		return nil, err
	}

	cancelled, err := s.getSale(ctx, a, id)
	if err != nil {
		return nil, err
	}
	publish(s.events, realtime.EventSaleCancelled, a.BusinessID, &cancelled.BranchID, cancelled)
	return cancelled, nil
}

// GetSale returns a sale with its items
func (s *SaleService) GetSale(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Sale, error) {
	if err := a.RequireAny(enum.CapMakeSales, enum.CapViewReports); err != nil {
		return nil, err
	}
	return s.getSale(ctx, a, id)
}

// ListSales returns sales newest first
func (s *SaleService) ListSales(ctx context.Context, a actor.Context, filter repository.SaleFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Sale], error) {
	if err := a.RequireAny(enum.CapMakeSales, enum.CapViewReports); err != nil {
		return nil, err
	}
	params.Validate()
	sales, total, err := s.saleRepo.List(ctx, a.BusinessID, filter, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(sales, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

func (s *SaleService) getSale(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetByID(ctx, a.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}
