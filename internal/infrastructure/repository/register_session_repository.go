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

type registerSessionRepository struct {
	db *gorm.DB
}

// NewRegisterSessionRepository creates a new register session repository
func NewRegisterSessionRepository(db *gorm.DB) domainRepo.RegisterSessionRepository {
	return &registerSessionRepository{db: db}
}

// Create inserts an open session. A second open session on the same branch
// violates idx_register_sessions_open_branch and surfaces as ErrDuplicate.
func (r *registerSessionRepository) Create(ctx context.Context, session *entity.RegisterSession) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Create(session).Error)
}

func (r *registerSessionRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.RegisterSession, error) {
	var session entity.RegisterSession
	err := conn(ctx, r.db).
		Preload("Branch").
		Preload("User").
		Scopes(BusinessScope(businessID)).
		First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *registerSessionRepository) GetByIDForUpdate(ctx context.Context, businessID, id uuid.UUID) (*entity.RegisterSession, error) {
	var session entity.RegisterSession
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(BusinessScope(businessID)).
		First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *registerSessionRepository) GetOpenByBranch(ctx context.Context, businessID, branchID uuid.UUID) (*entity.RegisterSession, error) {
	var session entity.RegisterSession
	err := conn(ctx, r.db).
		Preload("Branch").
		Preload("User").
		Scopes(BusinessScope(businessID)).
		Where("branch_id = ? AND status = ?", branchID, enum.SessionStatusOpen).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *registerSessionRepository) ListOpenByBranch(ctx context.Context, businessID, branchID uuid.UUID) ([]entity.RegisterSession, error) {
	var sessions []entity.RegisterSession
	err := conn(ctx, r.db).
		Preload("User").
		Scopes(BusinessScope(businessID)).
		Where("branch_id = ? AND status = ?", branchID, enum.SessionStatusOpen).
		Order("opening_time DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *registerSessionRepository) CountOpenByBranch(ctx context.Context, businessID uuid.UUID, branchIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(branchIDs))
	if len(branchIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		BranchID uuid.UUID
		Count    int64
	}
	err := conn(ctx, r.db).Model(&entity.RegisterSession{}).
		Select("branch_id, COUNT(*) AS count").
		Scopes(BusinessScope(businessID)).
		Where("branch_id IN ? AND status = ?", branchIDs, enum.SessionStatusOpen).
		Group("branch_id").
		Scan(&rows).Error
	for _, row := range rows {
		out[row.BranchID] = row.Count
	}
	return out, err
}

func (r *registerSessionRepository) Update(ctx context.Context, session *entity.RegisterSession) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(session).Error
}

func (r *registerSessionRepository) List(ctx context.Context, businessID uuid.UUID, filter domainRepo.SessionFilter, params *pagination.PaginationParams) ([]entity.RegisterSession, int64, error) {
	var sessions []entity.RegisterSession
	var total int64

	query := conn(ctx, r.db).Model(&entity.RegisterSession{}).Scopes(BusinessScope(businessID))
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("opening_time >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("opening_time < ?", *filter.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.
		Preload("Branch").
		Preload("User").
		Offset(params.Offset()).Limit(params.PerPage).
		Order("opening_time DESC").
		Find(&sessions).Error

	return sessions, total, err
}
