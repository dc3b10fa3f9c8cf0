package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var customerSearchColumns = []string{"first_name", "last_name", "email", "phone"}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) domainRepo.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Create(customer).Error)
}

func (r *customerRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) GetByEmail(ctx context.Context, businessID uuid.UUID, email string) (*entity.Customer, error) {
	var customer entity.Customer
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).
		First(&customer, "LOWER(email) = LOWER(?)", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Save(customer).Error)
}

func (r *customerRepository) List(ctx context.Context, businessID uuid.UUID, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	var customers []entity.Customer
	var total int64

	query := conn(ctx, r.db).Model(&entity.Customer{}).
		Scopes(BusinessScope(businessID), SearchScope(search, customerSearchColumns...))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("first_name ASC, last_name ASC").
		Find(&customers).Error

	return customers, total, err
}

func (r *customerRepository) Search(ctx context.Context, businessID uuid.UUID, q string, limit int) ([]entity.Customer, error) {
	var customers []entity.Customer
	err := conn(ctx, r.db).
		Scopes(BusinessScope(businessID), SearchScope(q, customerSearchColumns...)).
		Where("status = ?", enum.StatusActive).
		Order("first_name ASC, last_name ASC").
		Limit(limit).
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) GetByIDs(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]entity.Customer, error) {
	var customers []entity.Customer
	if len(ids) == 0 {
		return customers, nil
	}
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).Where("id IN ?", ids).Find(&customers).Error
	return customers, err
}

func (r *customerRepository) Count(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Customer{}).
		Scopes(BusinessScope(businessID)).
		Where("status = ?", enum.StatusActive).
		Count(&count).Error
	return count, err
}
