package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
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

const (
	customerSearchLimit  = 10
	customerHistoryLimit = 10
	minPhoneDigits       = 10
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo  repository.CustomerRepository
	saleRepo      repository.SaleRepository
	analyticsRepo repository.AnalyticsRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	saleRepo repository.SaleRepository,
	analyticsRepo repository.AnalyticsRepository,
) *CustomerService {
	return &CustomerService{
		customerRepo:  customerRepo,
		saleRepo:      saleRepo,
		analyticsRepo: analyticsRepo,
	}
}

// CustomerListItem is a customer with totals over completed sales
type CustomerListItem struct {
	entity.Customer
	TotalSales int64           `json:"total_sales"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// ListCustomers returns a paginated list of customers
func (s *CustomerService) ListCustomers(ctx context.Context, a actor.Context, search string, params *pagination.PaginationParams) (*pagination.PaginatedResult[CustomerListItem], error) {
	if err := a.Require(enum.CapViewCustomers); err != nil {
		return nil, err
	}
	params.Validate()

	customers, total, err := s.customerRepo.List(ctx, a.BusinessID, params, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}
	stats, err := s.analyticsRepo.SalesByCustomer(ctx, a.BusinessID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]CustomerListItem, len(customers))
	for i, c := range customers {
		items[i] = CustomerListItem{
			Customer:   c,
			TotalSales: stats[c.ID].Count,
			TotalSpent: stats[c.ID].Revenue,
		}
	}
	return pagination.NewPaginatedResult(items, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// SearchCustomers returns at most ten customers matching q
func (s *CustomerService) SearchCustomers(ctx context.Context, a actor.Context, q string) ([]entity.Customer, error) {
	if err := a.Require(enum.CapViewCustomers); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return []entity.Customer{}, nil
	}
	customers, err := s.customerRepo.Search(ctx, a.BusinessID, q, customerSearchLimit)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []entity.Customer{}
	}
	return customers, nil
}

// TopCustomers ranks customers by total spent
func (s *CustomerService) TopCustomers(ctx context.Context, a actor.Context, limit int) ([]repository.TopCustomerResult, error) {
	if err := a.Require(enum.CapViewCustomers); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	top, err := s.analyticsRepo.TopCustomers(ctx, a.BusinessID, limit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.TopCustomerResult{}
	}
	return top, nil
}

// CustomerInput is the create and update payload
type CustomerInput struct {
	FirstName string      `json:"first_name" validate:"required,max=100"`
	LastName  string      `json:"last_name" validate:"max=100"`
	Email     *string     `json:"email" validate:"omitempty,email,max=100"`
	Phone     *string     `json:"phone" validate:"omitempty,max=20"`
	TaxID     *string     `json:"tax_id" validate:"omitempty,max=20"`
	Address   *string     `json:"address"`
	Status    enum.Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

// normalize trims the input and checks the phone digit count.
func (in *CustomerInput) normalize() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = optionalString(in.Email)
	if in.Email != nil {
		lower := strings.ToLower(*in.Email)
		in.Email = &lower
	}
	in.Phone = optionalString(in.Phone)
	if in.Phone != nil && len(utils.NormalizePhone(*in.Phone)) < minPhoneDigits {
		return apperror.NewInvalidValue("phone", "Phone number must contain at least 10 digits")
	}
	in.TaxID = optionalString(in.TaxID)
	in.Address = optionalString(in.Address)
	return nil
}

// CreateCustomer records a new customer. Cashiers may add customers at the till.
func (s *CustomerService) CreateCustomer(ctx context.Context, a actor.Context, input *CustomerInput) (*entity.Customer, error) {
	if err := a.RequireAny(enum.CapMakeSales, enum.CapManageCustomers); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, a.BusinessID, input.Email, nil); err != nil {
		return nil, err
	}

	customer := &entity.Customer{
		BusinessID: a.BusinessID,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Phone:      input.Phone,
		TaxID:      input.TaxID,
		Address:    input.Address,
		Status:     enum.StatusActive,
	}
	if input.Status != "" {
		customer.Status = input.Status
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.NewDuplicateEmail("A customer with this email already exists")
		}
		return nil, err
	}
	return customer, nil
}

// UpdateCustomer updates a customer's contact details
func (s *CustomerService) UpdateCustomer(ctx context.Context, a actor.Context, id uuid.UUID, input *CustomerInput) (*entity.Customer, error) {
	if err := a.Require(enum.CapManageCustomers); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	customer, err := s.getCustomer(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, a.BusinessID, input.Email, &customer.ID); err != nil {
		return nil, err
	}

	customer.FirstName = input.FirstName
	customer.LastName = input.LastName
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.TaxID = input.TaxID
	customer.Address = input.Address
	if input.Status != "" {
		customer.Status = input.Status
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.NewDuplicateEmail("A customer with this email already exists")
		}
		return nil, err
	}
	return customer, nil
}

// PurchaseStats is derived from completed sales on every read
type PurchaseStats struct {
	TotalPurchases  int64           `json:"total_purchases"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	AveragePurchase decimal.Decimal `json:"average_purchase"`
	LastPurchase    *time.Time      `json:"last_purchase,omitempty"`
}

// PurchaseHistoryEntry is one of the customer's recent sales
type PurchaseHistoryEntry struct {
	ID            uuid.UUID          `json:"id"`
	Date          time.Time          `json:"date"`
	Total         string             `json:"total"`
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	PaymentStatus enum.PaymentStatus `json:"payment_status"`
	ItemsCount    int64              `json:"items_count"`
}

// CustomerDetails is the customer with stats and recent purchases
type CustomerDetails struct {
	Customer        *entity.Customer       `json:"customer"`
	Stats           PurchaseStats          `json:"stats"`
	PurchaseHistory []PurchaseHistoryEntry `json:"purchase_history"`
}

// GetCustomerDetails returns the customer, purchase statistics and the last ten sales
func (s *CustomerService) GetCustomerDetails(ctx context.Context, a actor.Context, id uuid.UUID) (*CustomerDetails, error) {
	if err := a.Require(enum.CapViewCustomers); err != nil {
		return nil, err
	}
	customer, err := s.getCustomer(ctx, a, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.analyticsRepo.SalesByCustomer(ctx, a.BusinessID, []uuid.UUID{customer.ID})
	if err != nil {
		return nil, err
	}
	last, err := s.analyticsRepo.LastSaleAt(ctx, a.BusinessID, repository.SaleFilter{CustomerID: &customer.ID})
	if err != nil {
		return nil, err
	}
	stats := PurchaseStats{
		TotalPurchases:  summary[customer.ID].Count,
		TotalSpent:      summary[customer.ID].Revenue,
		AveragePurchase: average(summary[customer.ID].Revenue, summary[customer.ID].Count),
		LastPurchase:    last,
	}

	sales, err := s.saleRepo.RecentByCustomer(ctx, a.BusinessID, customer.ID, customerHistoryLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(sales))
	for i, sale := range sales {
		ids[i] = sale.ID
	}
	counts, err := s.analyticsRepo.ItemCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	history := make([]PurchaseHistoryEntry, len(sales))
	for i, sale := range sales {
		history[i] = PurchaseHistoryEntry{
			ID:            sale.ID,
			Date:          sale.CreatedAt,
			Total:         sale.TotalAmount.StringFixed(2),
			PaymentMethod: sale.PaymentMethod,
			PaymentStatus: sale.PaymentStatus,
			ItemsCount:    counts[sale.ID],
		}
	}

	return &CustomerDetails{Customer: customer, Stats: stats, PurchaseHistory: history}, nil
}

func (s *CustomerService) getCustomer(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, a.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

func (s *CustomerService) ensureEmailFree(ctx context.Context, businessID uuid.UUID, email *string, excludeID *uuid.UUID) error {
	if email == nil {
		return nil
	}
	existing, err := s.customerRepo.GetByEmail(ctx, businessID, *email)
	if err != nil {
		return err
	}
	if existing != nil && (excludeID == nil || existing.ID != *excludeID) {
		return apperror.NewDuplicateEmail("A customer with this email already exists")
	}
	return nil
}
