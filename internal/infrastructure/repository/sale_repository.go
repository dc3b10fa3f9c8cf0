package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	db := conn(ctx, r.db)
	if err := db.Omit(clause.Associations).Create(sale).Error; err != nil {
		return err
	}
	if len(sale.Items) == 0 {
		return nil
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
	}
	return db.Omit(clause.Associations).Create(&sale.Items).Error
}

func (r *saleRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).
		Preload("Items.Product").
		Preload("Branch").
		Preload("User").
		Preload("Customer").
		Scopes(BusinessScope(businessID)).
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(BusinessScope(businessID)).
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	err = conn(ctx, r.db).
		Preload("Product.Components.Product").
		Where("sale_id = ?", sale.ID).
		Find(&sale.Items).Error
	return &sale, err
}

func (r *saleRepository) MarkCancelled(ctx context.Context, businessID, id uuid.UUID, at time.Time) error {
	return conn(ctx, r.db).Model(&entity.Sale{}).
		Where("id = ? AND business_id = ?", id, businessID).
		Updates(map[string]interface{}{
			"payment_status": enum.PaymentCancelled,
			"cancelled_at":   at,
		}).Error
}

func applySaleFilter(query *gorm.DB, filter domainRepo.SaleFilter) *gorm.DB {
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.RegisterSessionID != nil {
		query = query.Where("register_session_id = ?", *filter.RegisterSessionID)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at < ?", *filter.DateTo)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	return query
}

func (r *saleRepository) List(ctx context.Context, businessID uuid.UUID, filter domainRepo.SaleFilter, params *pagination.PaginationParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := applySaleFilter(conn(ctx, r.db).Model(&entity.Sale{}).Scopes(BusinessScope(businessID)), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.
		Preload("User").
		Preload("Customer").
		Preload("Branch").
		Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepository) FindAll(ctx context.Context, businessID uuid.UUID, filter domainRepo.SaleFilter) ([]entity.Sale, error) {
	var sales []entity.Sale
	err := applySaleFilter(conn(ctx, r.db).Scopes(BusinessScope(businessID)), filter).
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepository) RecentByCustomer(ctx context.Context, businessID, customerID uuid.UUID, limit int) ([]entity.Sale, error) {
	var sales []entity.Sale
	err := conn(ctx, r.db).
		Scopes(BusinessScope(businessID)).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}
