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
	"github.com/sangkips/pos-api/pkg/validation"
	"github.com/shopspring/decimal"
)

// BranchService manages the locations of a business
type BranchService struct {
	tx            repository.Transactor
	branchRepo    repository.BranchRepository
	userRepo      repository.UserRepository
	sessionRepo   repository.RegisterSessionRepository
	analyticsRepo repository.AnalyticsRepository
	plans         planGuard
}

// NewBranchService creates a new branch service
func NewBranchService(
	tx repository.Transactor,
	businessRepo repository.BusinessRepository,
	branchRepo repository.BranchRepository,
	userRepo repository.UserRepository,
	sessionRepo repository.RegisterSessionRepository,
	analyticsRepo repository.AnalyticsRepository,
	limits config.PlanLimits,
) *BranchService {
	return &BranchService{
		tx:            tx,
		branchRepo:    branchRepo,
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		analyticsRepo: analyticsRepo,
		plans:         planGuard{limits: limits, businessRepo: businessRepo},
	}
}

// BranchListItem is a branch with its activity counters
type BranchListItem struct {
	entity.Branch
	TotalUsers    int64           `json:"total_users"`
	OpenRegisters int64           `json:"open_registers"`
	TotalSales    int64           `json:"total_sales"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// ListBranches lists the business's branches with per-branch counters
func (s *BranchService) ListBranches(ctx context.Context, a actor.Context, filter repository.BranchFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[BranchListItem], error) {
	params.Validate()
	// Staff pinned to a branch only see their own.
	if scope := a.BranchScope(); scope != nil {
		filter.BranchID = scope
	}
	branches, total, err := s.branchRepo.List(ctx, a.BusinessID, filter, params)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(branches))
	for i, b := range branches {
		ids[i] = b.ID
	}
	users, err := s.userRepo.CountByBranch(ctx, a.BusinessID, ids)
	if err != nil {
		return nil, err
	}
	open, err := s.sessionRepo.CountOpenByBranch(ctx, a.BusinessID, ids)
	if err != nil {
		return nil, err
	}
	sales, err := s.analyticsRepo.SalesByBranch(ctx, a.BusinessID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]BranchListItem, len(branches))
	for i, b := range branches {
		items[i] = BranchListItem{
			Branch:        b,
			TotalUsers:    users[b.ID],
			OpenRegisters: open[b.ID],
			TotalSales:    sales[b.ID].Count,
			TotalRevenue:  sales[b.ID].Revenue,
		}
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(items, pag), nil
}

// BranchInput is the create and update payload
type BranchInput struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Address *string `json:"address"`
	Phone   *string `json:"phone" validate:"omitempty,phone,max=20"`
	Email   *string `json:"email" validate:"omitempty,email,max=100"`
}

// CreateBranch creates a branch, enforcing name uniqueness and the plan limit
func (s *BranchService) CreateBranch(ctx context.Context, a actor.Context, input *BranchInput) (*entity.Branch, error) {
	if err := a.Require(enum.CapManageBranches); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	branch := &entity.Branch{
		BusinessID: a.BusinessID,
		Name:       strings.TrimSpace(input.Name),
		Address:    optionalString(input.Address),
		Phone:      optionalString(input.Phone),
		Email:      optionalString(input.Email),
		Status:     enum.StatusActive,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		err := s.plans.check(ctx, a.BusinessID, s.plans.limits.Branches, "Branch", func() (int64, error) {
			return s.branchRepo.Count(ctx, a.BusinessID)
		})
		if err != nil {
			return err
		}
		if err := s.ensureNameFree(ctx, a.BusinessID, branch.Name, nil); err != nil {
			return err
		}
		return s.branchRepo.Create(ctx, branch)
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperror.NewDuplicateName("Branch name already exists")
	}
	if err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *BranchService) ensureNameFree(ctx context.Context, businessID uuid.UUID, name string, excludeID *uuid.UUID) error {
	existing, err := s.branchRepo.GetByName(ctx, businessID, name)
	if err != nil {
		return err
	}
	if existing != nil && (excludeID == nil || existing.ID != *excludeID) {
		return apperror.NewDuplicateName("Branch name already exists")
	}
	return nil
}

// UpdateBranch updates name and contact details
func (s *BranchService) UpdateBranch(ctx context.Context, a actor.Context, id uuid.UUID, input *BranchInput) (*entity.Branch, error) {
	if err := a.Require(enum.CapManageBranches); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	branch, err := s.getBranch(ctx, a, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name != branch.Name {
		if err := s.ensureNameFree(ctx, a.BusinessID, name, &branch.ID); err != nil {
			return nil, err
		}
	}
	branch.Name = name
	branch.Address = optionalString(input.Address)
	branch.Phone = optionalString(input.Phone)
	branch.Email = optionalString(input.Email)

	if err := s.branchRepo.Update(ctx, branch); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.NewDuplicateName("Branch name already exists")
		}
		return nil, err
	}
	return branch, nil
}

// DeactivateBranch marks a branch inactive. Branches with an open register
// cannot be deactivated.
func (s *BranchService) DeactivateBranch(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Branch, error) {
	if err := a.Require(enum.CapManageBranches); err != nil {
		return nil, err
	}

	var branch *entity.Branch
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		branch, err = s.getBranch(ctx, a, id)
		if err != nil {
			return err
		}
		open, err := s.sessionRepo.CountOpenByBranch(ctx, a.BusinessID, []uuid.UUID{branch.ID})
		if err != nil {
			return err
		}
		if open[branch.ID] > 0 {
			return apperror.ErrOpenSessionsExist
		}
		branch.Status = enum.StatusInactive
		return s.branchRepo.Update(ctx, branch)
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// OpenRegister is an open session with the name of who opened it
type OpenRegister struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	OpenedBy    string          `json:"opened_by"`
	OpeningTime string          `json:"opening_time"`
	InitialCash decimal.Decimal `json:"initial_cash"`
}

// BranchSalesStats summarises completed sales of a branch
type BranchSalesStats struct {
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AverageSale  decimal.Decimal `json:"average_sale"`
	LastSale     *string         `json:"last_sale,omitempty"`
}

// BranchDetails is the read-only branch dashboard
type BranchDetails struct {
	Branch        *entity.Branch   `json:"branch"`
	Users         []entity.User    `json:"users"`
	OpenRegisters []OpenRegister   `json:"open_registers"`
	SalesStats    BranchSalesStats `json:"sales_stats"`
}

// GetBranchDetails returns assigned users, open registers and sales statistics
func (s *BranchService) GetBranchDetails(ctx context.Context, a actor.Context, id uuid.UUID) (*BranchDetails, error) {
	if err := a.Require(enum.CapManageBranches); err != nil {
		return nil, err
	}
	return s.details(ctx, a, id)
}

// BranchSummary returns the same projection for report viewers
func (s *BranchService) BranchSummary(ctx context.Context, a actor.Context, id uuid.UUID) (*BranchDetails, error) {
	if err := a.RequireAny(enum.CapManageBranches, enum.CapViewReports); err != nil {
		return nil, err
	}
	return s.details(ctx, a, id)
}

func (s *BranchService) details(ctx context.Context, a actor.Context, id uuid.UUID) (*BranchDetails, error) {
	if err := a.RequireBranch(id); err != nil {
		return nil, err
	}
	branch, err := s.getBranch(ctx, a, id)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListByBranch(ctx, a.BusinessID, branch.ID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.ListOpenByBranch(ctx, a.BusinessID, branch.ID)
	if err != nil {
		return nil, err
	}
	registers := make([]OpenRegister, len(sessions))
	for i, rs := range sessions {
		reg := OpenRegister{
			ID:          rs.ID,
			UserID:      rs.UserID,
			OpeningTime: rs.OpeningTime.Format(timeLayout),
			InitialCash: rs.InitialCash,
		}
		if rs.User != nil {
			reg.OpenedBy = rs.User.FullName()
		}
		registers[i] = reg
	}

	sales, err := s.analyticsRepo.SalesByBranch(ctx, a.BusinessID, []uuid.UUID{branch.ID})
	if err != nil {
		return nil, err
	}
	summary := sales[branch.ID]
	stats := BranchSalesStats{
		TotalSales:   summary.Count,
		TotalRevenue: summary.Revenue,
		AverageSale:  average(summary.Revenue, summary.Count),
	}
	last, err := s.analyticsRepo.LastSaleAt(ctx, a.BusinessID, repository.SaleFilter{BranchID: &branch.ID})
	if err != nil {
		return nil, err
	}
	if last != nil {
		ts := last.Format(timeLayout)
		stats.LastSale = &ts
	}

	if users == nil {
		users = []entity.User{}
	}
	return &BranchDetails{Branch: branch, Users: users, OpenRegisters: registers, SalesStats: stats}, nil
}

func (s *BranchService) getBranch(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.Branch, error) {
	branch, err := s.branchRepo.GetByID(ctx, a.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, apperror.NewNotFoundError("Branch")
	}
	return branch, nil
}

const timeLayout = "2006-01-02 15:04:05"

// average returns total/count rounded to cents, or zero for no rows.
func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count)).Round(2)
}
