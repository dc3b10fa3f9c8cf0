package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, businessID, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := conn(ctx, r.db).
		Preload("Permissions").
		Preload("Branch").
		Scopes(BusinessScope(businessID)).
		First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

// findOne loads a user with permissions and business for sign-in paths.
func (r *userRepository) findOne(ctx context.Context, cond string, arg interface{}) (*entity.User, error) {
	var user entity.User
	err := conn(ctx, r.db).
		Preload("Permissions").
		Preload("Business").
		Where(cond, arg).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return database.TranslateError(conn(ctx, r.db).Omit(clause.Associations).Save(user).Error)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return conn(ctx, r.db).Model(&entity.User{}).Where("id = ?", id).Update("password", hash).Error
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return conn(ctx, r.db).Model(&entity.User{}).Where("id = ?", id).UpdateColumn("last_login", at).Error
}

func (r *userRepository) List(ctx context.Context, businessID uuid.UUID, filter domainRepo.UserFilter, params *pagination.PaginationParams) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	query := conn(ctx, r.db).Model(&entity.User{}).
		Scopes(BusinessScope(businessID), SearchScope(filter.Search, "first_name", "last_name", "username", "email"))
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Preload("Branch").Preload("Permissions").
		Offset(params.Offset()).Limit(params.PerPage).
		Order("first_name ASC, last_name ASC").
		Find(&users).Error

	return users, total, err
}

func (r *userRepository) ListByBranch(ctx context.Context, businessID, branchID uuid.UUID) ([]entity.User, error) {
	var users []entity.User
	err := conn(ctx, r.db).Scopes(BusinessScope(businessID)).
		Where("branch_id = ?", branchID).
		Order("first_name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) CountByBranch(ctx context.Context, businessID uuid.UUID, branchIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(branchIDs))
	if len(branchIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		BranchID uuid.UUID
		Count    int64
	}
	err := conn(ctx, r.db).Model(&entity.User{}).
		Select("branch_id, COUNT(*) AS count").
		Scopes(BusinessScope(businessID)).
		Where("branch_id IN ?", branchIDs).
		Group("branch_id").
		Scan(&rows).Error
	for _, row := range rows {
		out[row.BranchID] = row.Count
	}
	return out, err
}

func (r *userRepository) CountActive(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.User{}).
		Scopes(BusinessScope(businessID)).
		Where("status = ?", enum.StatusActive).
		Count(&count).Error
	return count, err
}

func (r *userRepository) CountActiveAdmins(ctx context.Context, businessID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.User{}).
		Scopes(BusinessScope(businessID)).
		Where("status = ? AND role = ?", enum.StatusActive, enum.RoleAdmin).
		Count(&count).Error
	return count, err
}

func (r *userRepository) ReplacePermissions(ctx context.Context, userID uuid.UUID, perms []string) error {
	db := conn(ctx, r.db)
	if err := db.Where("user_id = ?", userID).Delete(&entity.UserPermission{}).Error; err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	rows := make([]entity.UserPermission, len(perms))
	for i, p := range perms {
		rows[i] = entity.UserPermission{UserID: userID, Permission: p}
	}
	return db.Create(&rows).Error
}
