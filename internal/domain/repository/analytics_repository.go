package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopProductResult represents a product's sales performance
type TopProductResult struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"name"`
	SKU          string          `json:"sku"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// TopCustomerResult represents a customer's spending data
type TopCustomerResult struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"name"`
	Email        *string         `json:"email,omitempty"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	SaleCount    int64           `json:"total_sales"`
}

// SalesSummary aggregates completed sales for one grouping key
type SalesSummary struct {
	Count    int64           `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
	LastSale *time.Time      `json:"last_sale,omitempty"`
}

// AnalyticsRepository defines aggregation queries over completed sales.
// Results never feed stock or register totals.
type AnalyticsRepository interface {
	// TopProducts returns the best sellers by revenue between from and to.
	TopProducts(ctx context.Context, businessID uuid.UUID, from, to time.Time, limit int) ([]TopProductResult, error)
	TopCustomers(ctx context.Context, businessID uuid.UUID, limit int) ([]TopCustomerResult, error)
	// SalesByBranch summarises completed sales per branch id. LastSale is left unset.
	SalesByBranch(ctx context.Context, businessID uuid.UUID, branchIDs []uuid.UUID) (map[uuid.UUID]SalesSummary, error)
	// SalesByCustomer summarises completed sales per customer id. LastSale is left unset.
	SalesByCustomer(ctx context.Context, businessID uuid.UUID, customerIDs []uuid.UUID) (map[uuid.UUID]SalesSummary, error)
	// SalesBetween summarises completed sales in [from, to).
	SalesBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (SalesSummary, error)
	// LastSaleAt returns the newest completed sale time matching filter, or nil.
	LastSaleAt(ctx context.Context, businessID uuid.UUID, filter SaleFilter) (*time.Time, error)
	// ItemCounts returns the number of line items per sale id.
	ItemCounts(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}
