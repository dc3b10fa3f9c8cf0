package service

import (
	"context"
	"errors"
	"strings"

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
)

// UserService handles user management operations
type UserService struct {
	tx         repository.Transactor
	userRepo   repository.UserRepository
	branchRepo repository.BranchRepository
	plans      planGuard
}

// NewUserService creates a new user service
func NewUserService(
	tx repository.Transactor,
	businessRepo repository.BusinessRepository,
	branchRepo repository.BranchRepository,
	userRepo repository.UserRepository,
	limits config.PlanLimits,
) *UserService {
	return &UserService{
		tx:         tx,
		userRepo:   userRepo,
		branchRepo: branchRepo,
		plans:      planGuard{limits: limits, businessRepo: businessRepo},
	}
}

// UserDetail is a user together with its effective capabilities
type UserDetail struct {
	*entity.User
	RoleName     string   `json:"role_name"`
	Capabilities []string `json:"capabilities"`
}

func newUserDetail(u *entity.User) *UserDetail {
	return &UserDetail{
		User:         u,
		RoleName:     u.Role.DisplayName(),
		Capabilities: u.Capabilities().Strings(),
	}
}

// ListUsers returns a paginated list of the business's users
func (s *UserService) ListUsers(ctx context.Context, a actor.Context, filter repository.UserFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.User], error) {
	if err := a.Require(enum.CapManageUsers); err != nil {
		return nil, err
	}
	params.Validate()

	users, total, err := s.userRepo.List(ctx, a.BusinessID, filter, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(users, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// GetUser returns a user of the business with its capabilities
func (s *UserService) GetUser(ctx context.Context, a actor.Context, id uuid.UUID) (*UserDetail, error) {
	if err := a.Require(enum.CapManageUsers); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, a, id)
	if err != nil {
		return nil, err
	}
	return newUserDetail(user), nil
}

// CreateUserInput represents the input for creating a user
type CreateUserInput struct {
	FirstName            string     `json:"first_name" validate:"required,max=100"`
	LastName             string     `json:"last_name" validate:"max=100"`
	Username             string     `json:"username" validate:"required,username"`
	Email                string     `json:"email" validate:"required,email,max=100"`
	Password             string     `json:"password" validate:"required,min=8"`
	PasswordConfirmation string     `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 enum.Role  `json:"role" validate:"required,oneof=admin manager cashier"`
	BranchID             *uuid.UUID `json:"branch_id"`
}

// CreateUser adds an operator to the business
func (s *UserService) CreateUser(ctx context.Context, a actor.Context, input *CreateUserInput) (*UserDetail, error) {
	if err := a.Require(enum.CapManageUsers); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		BusinessID: a.BusinessID,
		BranchID:   input.BranchID,
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Username:   strings.TrimSpace(input.Username),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Password:   hash,
		Role:       input.Role,
		Status:     enum.StatusActive,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		err := s.plans.check(ctx, a.BusinessID, s.plans.limits.Users, "User", func() (int64, error) {
			return s.userRepo.CountActive(ctx, a.BusinessID)
		})
		if err != nil {
			return err
		}
		if err := s.ensureBranch(ctx, a, user.BranchID); err != nil {
			return err
		}
		if err := s.ensureIdentityFree(ctx, user.Username, user.Email, nil); err != nil {
			return err
		}
		return s.userRepo.Create(ctx, user)
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperror.NewDuplicateEmail("Username or email already in use")
	}
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.GetByID(ctx, a.BusinessID, user.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = user
	}
	return newUserDetail(created), nil
}

// UpdateUserInput represents the input for updating a user.
// An empty password leaves the current one in place.
type UpdateUserInput struct {
	FirstName string     `json:"first_name" validate:"required,max=100"`
	LastName  string     `json:"last_name" validate:"max=100"`
	Email     string     `json:"email" validate:"required,email,max=100"`
	Password  string     `json:"password" validate:"omitempty,min=8"`
	Role      enum.Role  `json:"role" validate:"required,oneof=admin manager cashier"`
	BranchID  *uuid.UUID `json:"branch_id"`
}

// UpdateUser updates profile, role and branch assignment
func (s *UserService) UpdateUser(ctx context.Context, a actor.Context, id uuid.UUID, input *UpdateUserInput) (*UserDetail, error) {
	if err := a.Require(enum.CapManageUsers); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var user *entity.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.getUser(ctx, a, id)
		if err != nil {
			return err
		}
		if err := s.ensureBranch(ctx, a, input.BranchID); err != nil {
			return err
		}

		email := strings.ToLower(strings.TrimSpace(input.Email))
		if email != user.Email {
			if err := s.ensureIdentityFree(ctx, "", email, &user.ID); err != nil {
				return err
			}
		}
		if user.Role == enum.RoleAdmin && input.Role != enum.RoleAdmin && user.IsActive() {
			if err := s.ensureOtherAdmin(ctx, a.BusinessID); err != nil {
				return err
			}
		}

		user.FirstName = strings.TrimSpace(input.FirstName)
		user.LastName = strings.TrimSpace(input.LastName)
		user.Email = email
		user.Role = input.Role
		user.BranchID = input.BranchID
		user.Branch = nil
		if input.Password != "" {
			hash, err := utils.HashPassword(input.Password)
			if err != nil {
				return err
			}
			user.Password = hash
		}
		return s.userRepo.Update(ctx, user)
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperror.NewDuplicateEmail("Email already in use")
	}
	if err != nil {
		return nil, err
	}
	return newUserDetail(user), nil
}

// SetPermissionsInput lists the capabilities granted to a user.
// An empty list restores the role defaults.
type SetPermissionsInput struct {
	Permissions []string `json:"permissions"`
}

// SetPermissions replaces the user's capability overrides
func (s *UserService) SetPermissions(ctx context.Context, a actor.Context, id uuid.UUID, input *SetPermissionsInput) (*UserDetail, error) {
	if err := a.Require(enum.CapManageUsers); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(input.Permissions))
	perms := make([]string, 0, len(input.Permissions))
	var fieldErrors []apperror.FieldError
	for _, p := range input.Permissions {
		c, ok := enum.ParseCapability(strings.TrimSpace(p))
		if !ok {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "permissions", Message: "Unknown permission: " + p})
			continue
		}
		if _, dup := seen[c.String()]; dup {
			continue
		}
		seen[c.String()] = struct{}{}
		perms = append(perms, c.String())
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.getUser(ctx, a, id)
		if err != nil {
			return err
		}
		return s.userRepo.ReplacePermissions(ctx, user.ID, perms)
	})
	if err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, a, id)
	if err != nil {
		return nil, err
	}
	return newUserDetail(user), nil
}

// DeactivateUser disables a user's sign-in. The last active admin and the
// caller themselves cannot be deactivated.
func (s *UserService) DeactivateUser(ctx context.Context, a actor.Context, id uuid.UUID) (*UserDetail, error) {
	if err := a.Require(enum.CapManageUsers); err != nil {
		return nil, err
	}
	if id == a.UserID {
		return nil, apperror.NewConflictError("SelfDeactivation", "You cannot deactivate your own account")
	}

	var user *entity.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.getUser(ctx, a, id)
		if err != nil {
			return err
		}
		if !user.IsActive() {
			return nil
		}
		if user.Role == enum.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx, a.BusinessID); err != nil {
				return err
			}
		}
		user.Status = enum.StatusInactive
		return s.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return newUserDetail(user), nil
}

func (s *UserService) getUser(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, a.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ensureOtherAdmin fails unless another active admin remains after the change.
func (s *UserService) ensureOtherAdmin(ctx context.Context, businessID uuid.UUID) error {
	admins, err := s.userRepo.CountActiveAdmins(ctx, businessID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperror.ErrLastAdmin
	}
	return nil
}

func (s *UserService) ensureBranch(ctx context.Context, a actor.Context, branchID *uuid.UUID) error {
	if branchID == nil {
		return nil
	}
	branch, err := s.branchRepo.GetByID(ctx, a.BusinessID, *branchID)
	if err != nil {
		return err
	}
	if branch == nil {
		return apperror.NewInvalidValue("branch_id", "Branch does not belong to this business")
	}
	return nil
}

func (s *UserService) ensureIdentityFree(ctx context.Context, username, email string, excludeID *uuid.UUID) error {
	if username != "" {
		existing, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil && (excludeID == nil || existing.ID != *excludeID) {
			return apperror.NewDuplicateName("Username already exists")
		}
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && (excludeID == nil || existing.ID != *excludeID) {
		return apperror.NewDuplicateEmail("Email already registered")
	}
	return nil
}
