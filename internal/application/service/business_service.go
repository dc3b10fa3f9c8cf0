package service

import (
	"context"
	"time"

	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/validation"
	"github.com/shopspring/decimal"
)

const subscriptionPeriodDays = 30

// BusinessService handles the signed-in business and its subscription
type BusinessService struct {
	businessRepo  repository.BusinessRepository
	branchRepo    repository.BranchRepository
	userRepo      repository.UserRepository
	productRepo   repository.ProductRepository
	customerRepo  repository.CustomerRepository
	analyticsRepo repository.AnalyticsRepository
	loc           *time.Location
}

// NewBusinessService creates a new business service
func NewBusinessService(
	businessRepo repository.BusinessRepository,
	branchRepo repository.BranchRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	analyticsRepo repository.AnalyticsRepository,
	loc *time.Location,
) *BusinessService {
	if loc == nil {
		loc = time.UTC
	}
	return &BusinessService{
		businessRepo:  businessRepo,
		branchRepo:    branchRepo,
		userRepo:      userRepo,
		productRepo:   productRepo,
		customerRepo:  customerRepo,
		analyticsRepo: analyticsRepo,
		loc:           loc,
	}
}

// BusinessDetails is the business with headline counts
type BusinessDetails struct {
	Business      *entity.Business `json:"business"`
	TotalBranches int64            `json:"total_branches"`
	TotalUsers    int64            `json:"total_users"`
	TotalProducts int64            `json:"total_products"`
	DaysRemaining *int             `json:"days_remaining,omitempty"`
}

// Details returns the actor's business
func (s *BusinessService) Details(ctx context.Context, a actor.Context) (*BusinessDetails, error) {
	business, err := s.businessRepo.GetByID(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, apperror.NewNotFoundError("Business")
	}

	out := &BusinessDetails{Business: business}
	if out.TotalBranches, err = s.branchRepo.Count(ctx, a.BusinessID); err != nil {
		return nil, err
	}
	if out.TotalUsers, err = s.userRepo.CountActive(ctx, a.BusinessID); err != nil {
		return nil, err
	}
	if out.TotalProducts, err = s.productRepo.Count(ctx, a.BusinessID); err != nil {
		return nil, err
	}
	if business.SubscriptionExpiry != nil {
		days := int(business.SubscriptionExpiry.Sub(timeNow()).Hours() / 24)
		if days < 0 {
			days = 0
		}
		out.DaysRemaining = &days
	}
	return out, nil
}

// TodaySales is the count and total of today's completed sales
type TodaySales struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// BusinessStats is the dashboard summary
type BusinessStats struct {
	TodaySales     TodaySales `json:"today_sales"`
	ActiveProducts int64      `json:"active_products"`
	LowStockCount  int64      `json:"low_stock_count"`
	Customers      int64      `json:"customers"`
}

// Stats returns today's sales and catalog health for the actor's business
func (s *BusinessService) Stats(ctx context.Context, a actor.Context) (*BusinessStats, error) {
	from, to := dayBounds(timeNow(), s.loc)
	today, err := s.analyticsRepo.SalesBetween(ctx, a.BusinessID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &BusinessStats{TodaySales: TodaySales{Count: today.Count, Total: today.Revenue}}
	if stats.ActiveProducts, err = s.productRepo.CountActive(ctx, a.BusinessID); err != nil {
		return nil, err
	}
	if stats.LowStockCount, err = s.productRepo.CountLowStock(ctx, a.BusinessID); err != nil {
		return nil, err
	}
	if stats.Customers, err = s.customerRepo.Count(ctx, a.BusinessID); err != nil {
		return nil, err
	}
	return stats, nil
}

// UpdateSubscriptionInput selects a plan
type UpdateSubscriptionInput struct {
	Plan string `json:"plan" validate:"required,oneof=basic premium enterprise"`
}

// UpdateSubscription switches plan and starts a new paid period. Admins only.
func (s *BusinessService) UpdateSubscription(ctx context.Context, a actor.Context, input *UpdateSubscriptionInput) (*entity.Business, error) {
	if !a.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := a.Require(enum.CapManageSettings); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	business, err := s.businessRepo.GetByID(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, apperror.NewNotFoundError("Business")
	}

	expiry := timeNow().AddDate(0, 0, subscriptionPeriodDays)
	business.SubscriptionPlan = enum.SubscriptionPlan(input.Plan)
	business.SubscriptionStatus = enum.SubscriptionActive
	business.SubscriptionExpiry = &expiry
	if err := s.businessRepo.Update(ctx, business); err != nil {
		return nil, err
	}
	return business, nil
}

// dayBounds returns the UTC start and end of the local day containing t.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
