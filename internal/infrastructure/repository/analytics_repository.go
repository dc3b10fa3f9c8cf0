package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) completed(ctx context.Context, businessID uuid.UUID) *gorm.DB {
	return conn(ctx, r.db).Model(&entity.Sale{}).
		Scopes(BusinessScope(businessID)).
		Where("payment_status = ?", enum.PaymentCompleted)
}

// TopProducts sums line quantities and totals in Go so decimal precision
// holds on both drivers.
func (r *analyticsRepository) TopProducts(ctx context.Context, businessID uuid.UUID, from, to time.Time, limit int) ([]domainRepo.TopProductResult, error) {
	var lines []struct {
		ProductID   uuid.UUID
		Quantity    decimal.Decimal
		TotalAmount decimal.Decimal
	}
	err := conn(ctx, r.db).Table("sale_items").
		Select("sale_items.product_id, sale_items.quantity, sale_items.total_amount").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Scopes(BusinessScopeOn("sales", businessID)).
		Where("sales.payment_status = ? AND sales.created_at >= ? AND sales.created_at < ?", enum.PaymentCompleted, from, to).
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uuid.UUID]*domainRepo.TopProductResult)
	for _, l := range lines {
		row, ok := byProduct[l.ProductID]
		if !ok {
			row = &domainRepo.TopProductResult{ProductID: l.ProductID}
			byProduct[l.ProductID] = row
		}
		row.QuantitySold = row.QuantitySold.Add(l.Quantity)
		row.Revenue = row.Revenue.Add(l.TotalAmount)
	}

	results := make([]domainRepo.TopProductResult, 0, len(byProduct))
	ids := make([]uuid.UUID, 0, len(byProduct))
	for id, row := range byProduct {
		results = append(results, *row)
		ids = append(ids, id)
	}
	sort.Slice(results, func(i, j int) bool {
		if c := results[i].Revenue.Cmp(results[j].Revenue); c != 0 {
			return c > 0
		}
		return results[i].QuantitySold.GreaterThan(results[j].QuantitySold)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	var products []entity.Product
	if len(ids) > 0 {
		if err := conn(ctx, r.db).Select("id, name, sku").Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, err
		}
	}
	names := make(map[uuid.UUID]entity.Product, len(products))
	for _, p := range products {
		names[p.ID] = p
	}
	for i := range results {
		p := names[results[i].ProductID]
		results[i].ProductName = p.Name
		results[i].SKU = p.SKU
	}
	return results, nil
}

func (r *analyticsRepository) TopCustomers(ctx context.Context, businessID uuid.UUID, limit int) ([]domainRepo.TopCustomerResult, error) {
	var rows []struct {
		CustomerID uuid.UUID
		SaleCount  int64
		TotalSpent decimal.Decimal
	}
	err := r.completed(ctx, businessID).
		Select("customer_id, COUNT(*) AS sale_count, COALESCE(SUM(total_amount), 0) AS total_spent").
		Where("customer_id IS NOT NULL").
		Group("customer_id").
		Order("total_spent DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.CustomerID
	}
	var customers []entity.Customer
	if len(ids) > 0 {
		if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&customers).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uuid.UUID]entity.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	results := make([]domainRepo.TopCustomerResult, len(rows))
	for i, row := range rows {
		c := byID[row.CustomerID]
		results[i] = domainRepo.TopCustomerResult{
			CustomerID:   row.CustomerID,
			CustomerName: c.FullName(),
			Email:        c.Email,
			TotalSpent:   row.TotalSpent.Round(2),
			SaleCount:    row.SaleCount,
		}
	}
	return results, nil
}

func (r *analyticsRepository) summarise(ctx context.Context, businessID uuid.UUID, column string, ids []uuid.UUID) (map[uuid.UUID]domainRepo.SalesSummary, error) {
	out := make(map[uuid.UUID]domainRepo.SalesSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		GroupKey uuid.UUID
		Count    int64
		Revenue  decimal.Decimal
	}
	err := r.completed(ctx, businessID).
		Select(column+" AS group_key, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	for _, row := range rows {
		out[row.GroupKey] = domainRepo.SalesSummary{Count: row.Count, Revenue: row.Revenue.Round(2)}
	}
	return out, err
}

func (r *analyticsRepository) SalesByBranch(ctx context.Context, businessID uuid.UUID, branchIDs []uuid.UUID) (map[uuid.UUID]domainRepo.SalesSummary, error) {
	return r.summarise(ctx, businessID, "branch_id", branchIDs)
}

func (r *analyticsRepository) SalesByCustomer(ctx context.Context, businessID uuid.UUID, customerIDs []uuid.UUID) (map[uuid.UUID]domainRepo.SalesSummary, error) {
	return r.summarise(ctx, businessID, "customer_id", customerIDs)
}

func (r *analyticsRepository) SalesBetween(ctx context.Context, businessID uuid.UUID, from, to time.Time) (domainRepo.SalesSummary, error) {
	var row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	err := r.completed(ctx, businessID).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&row).Error
	return domainRepo.SalesSummary{Count: row.Count, Revenue: row.Revenue.Round(2)}, err
}

func (r *analyticsRepository) LastSaleAt(ctx context.Context, businessID uuid.UUID, filter domainRepo.SaleFilter) (*time.Time, error) {
	filter.PaymentStatus = enum.PaymentCompleted
	var sales []entity.Sale
	err := applySaleFilter(conn(ctx, r.db).Select("id, created_at").Scopes(BusinessScope(businessID)), filter).
		Order("created_at DESC").
		Limit(1).
		Find(&sales).Error
	if err != nil || len(sales) == 0 {
		return nil, err
	}
	return &sales[0].CreatedAt, nil
}

func (r *analyticsRepository) ItemCounts(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(saleIDs))
	if len(saleIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		SaleID uuid.UUID
		Count  int64
	}
	err := conn(ctx, r.db).Model(&entity.SaleItem{}).
		Select("sale_id, COUNT(*) AS count").
		Where("sale_id IN ?", saleIDs).
		Group("sale_id").
		Scan(&rows).Error
	for _, row := range rows {
		out[row.SaleID] = row.Count
	}
	return out, err
}
