package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type businessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db *gorm.DB) domainRepo.BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(ctx context.Context, business *entity.Business) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(business).Error
}

func (r *businessRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	var business entity.Business
	err := conn(ctx, r.db).First(&business, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &business, err
}

func (r *businessRepository) Update(ctx context.Context, business *entity.Business) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(business).Error
}

type branchRepository struct {
	db *gorm.DB
}

// NewBranchRepository creates a new branch repository
func NewBranchRepository(db *gorm.DB) domainRepo.BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Create(ctx context.Context, branch *entity.Branch) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Create(branch).Error)
}

func (r *branchRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.Branch, error) {
	var branch entity.Branch
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).First(&branch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &branch, err
}

func (r *branchRepository) GetByName(ctx context.Context, businessID uuid.UUID, name string) (*entity.Branch, error) {
	var branch entity.Branch
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).First(&branch, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &branch, err
}

func (r *branchRepository) Update(ctx context.Context, branch *entity.Branch) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Save(branch).Error)
}

func (r *branchRepository) List(ctx context.Context, businessID uuid.UUID, filter domainRepo.BranchFilter, params *pagination.PaginationParams) ([]entity.Branch, int64, error) {
	var branches []entity.Branch
	var total int64

	query := conn(ctx, r.db).Model(&entity.Branch{}).
		Scopes(BusinessScope(businessID), SearchScope(filter.Search, "name", "address", "phone"))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BranchID != nil {
		query = query.Where("id = ?", *filter.BranchID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("name ASC").
		Find(&branches).Error

	return branches, total, err
}

func (r *branchRepository) Count(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Branch{}).Scopes(BusinessScope(businessID)).Count(&count).Error
	return count, err
}
