package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/internal/infrastructure/realtime"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// RegisterSessionService runs the cash drawer lifecycle of each branch
type RegisterSessionService struct {
	tx          repository.Transactor
	sessionRepo repository.RegisterSessionRepository
	branchRepo  repository.BranchRepository
	saleRepo    repository.SaleRepository
	events      EventPublisher
	loc         *time.Location
}

// NewRegisterSessionService creates a new register session service
func NewRegisterSessionService(
	tx repository.Transactor,
	sessionRepo repository.RegisterSessionRepository,
	branchRepo repository.BranchRepository,
	saleRepo repository.SaleRepository,
	events EventPublisher,
	loc *time.Location,
) *RegisterSessionService {
	if events == nil {
		events = NopPublisher()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RegisterSessionService{
		tx:          tx,
		sessionRepo: sessionRepo,
		branchRepo:  branchRepo,
		saleRepo:    saleRepo,
		events:      events,
		loc:         loc,
	}
}

// OpenSessionInput opens a drawer. BranchID defaults to the actor's branch.
type OpenSessionInput struct {
	BranchID    *uuid.UUID      `json:"branch_id"`
	InitialCash decimal.Decimal `json:"initial_cash"`
	Notes       *string         `json:"notes"`
}

// OpenSession opens a register on a branch. A branch holds at most one open
// session; the check and the insert share a transaction.
func (s *RegisterSessionService) OpenSession(ctx context.Context, a actor.Context, input *OpenSessionInput) (*entity.RegisterSession, error) {
	if err := a.Require(enum.CapManageRegister); err != nil {
		return nil, err
	}
	branchID := input.BranchID
	if branchID == nil {
		branchID = a.BranchID
	}
	if branchID == nil {
		return nil, apperror.NewInvalidValue("branch_id", "branch_id is required")
	}
	if err := a.RequireBranch(*branchID); err != nil {
		return nil, err
	}
	if input.InitialCash.IsNegative() {
		return nil, apperror.NewInvalidAmount("initial_cash")
	}

	session := &entity.RegisterSession{
		BusinessID:     a.BusinessID,
		BranchID:       *branchID,
		UserID:         a.UserID,
		Status:         enum.SessionStatusOpen,
		OpeningTime:    timeNow(),
		InitialCash:    input.InitialCash.Round(2),
		TotalCashSales: decimal.Zero,
		TotalCardSales: decimal.Zero,
		Notes:          optionalString(input.Notes),
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		branch, err := s.branchRepo.GetByID(ctx, a.BusinessID, *branchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return apperror.NewNotFoundError("Branch")
		}
		if branch.Status != enum.StatusActive {
			return apperror.NewInvalidValue("branch_id", "Branch is not active")
		}

		open, err := s.sessionRepo.GetOpenByBranch(ctx, a.BusinessID, branch.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperror.ErrSessionAlreadyOpen
		}
		return s.sessionRepo.Create(ctx, session)
	})
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperror.ErrSessionAlreadyOpen
	}
	if err != nil {
		return nil, err
	}

	publish(s.events, realtime.EventSessionOpened, a.BusinessID, &session.BranchID, session)
	return s.getSession(ctx, a, session.ID)
}

// CloseSessionInput is the counted drawer at closing
type CloseSessionInput struct {
	FinalCash decimal.Decimal `json:"final_cash"`
	Notes     *string         `json:"notes"`
}

// CloseSession reconciles and closes an open session under a row lock.
// A non-zero cash difference is reported, never rejected.
func (s *RegisterSessionService) CloseSession(ctx context.Context, a actor.Context, id uuid.UUID, input *CloseSessionInput) (*entity.RegisterSession, error) {
	if err := a.Require(enum.CapManageRegister); err != nil {
		return nil, err
	}
	if input.FinalCash.IsNegative() {
		return nil, apperror.NewInvalidAmount("final_cash")
	}

	var session *entity.RegisterSession
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.sessionRepo.GetByIDForUpdate(ctx, a.BusinessID, id)
		if err != nil {
			return err
		}
		if session == nil {
			return apperror.NewNotFoundError("Register session")
		}
		if err := a.RequireBranch(session.BranchID); err != nil {
			return err
		}
		if !session.IsOpen() {
			return apperror.ErrSessionNotOpen
		}

		totals, err := s.sessionTotals(ctx, a.BusinessID, session.ID)
		if err != nil {
			return err
		}

		now := timeNow()
		finalCash := input.FinalCash.Round(2)
		expected := session.InitialCash.Add(totals.Cash)
		difference := finalCash.Sub(expected)

		session.Status = enum.SessionStatusClosed
		session.ClosingTime = &now
		session.FinalCash = &finalCash
		session.TotalCashSales = totals.Cash
		session.TotalCardSales = totals.Card
		session.ExpectedCash = &expected
		session.CashDifference = &difference
		if notes := optionalString(input.Notes); notes != nil {
			session.Notes = notes
		}
		return s.sessionRepo.Update(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, realtime.EventSessionClosed, a.BusinessID, &session.BranchID, session)
	return s.getSession(ctx, a, session.ID)
}

// cashTotals sums completed sales of one session by payment method.
type cashTotals struct {
	Cash     decimal.Decimal
	Card     decimal.Decimal
	Transfer decimal.Decimal
	Count    int64
	Sales    []entity.Sale
}

func (s *RegisterSessionService) sessionTotals(ctx context.Context, businessID, sessionID uuid.UUID) (*cashTotals, error) {
	sales, err := s.saleRepo.FindAll(ctx, businessID, repository.SaleFilter{
		RegisterSessionID: &sessionID,
		PaymentStatus:     enum.PaymentCompleted,
	})
	if err != nil {
		return nil, err
	}
	t := &cashTotals{Cash: decimal.Zero, Card: decimal.Zero, Transfer: decimal.Zero, Sales: sales}
	for _, sale := range sales {
		switch sale.PaymentMethod {
		case enum.PaymentCash:
			t.Cash = t.Cash.Add(sale.TotalAmount)
		case enum.PaymentCard:
			t.Card = t.Card.Add(sale.TotalAmount)
		default:
			t.Transfer = t.Transfer.Add(sale.TotalAmount)
		}
		t.Count++
	}
	t.Cash = t.Cash.Round(2)
	t.Card = t.Card.Round(2)
	t.Transfer = t.Transfer.Round(2)
	return t, nil
}

// HourlySales is one "HH:00" bucket of a session report
type HourlySales struct {
	Hour  string          `json:"hour"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SessionReport re-derives a session's totals from its sales
type SessionReport struct {
	Session        *entity.RegisterSession `json:"session"`
	TotalSales     int64                   `json:"total_sales"`
	TotalCashSales decimal.Decimal         `json:"total_cash_sales"`
	TotalCardSales decimal.Decimal         `json:"total_card_sales"`
	TotalTransfer  decimal.Decimal         `json:"total_transfer_sales"`
	ExpectedCash   decimal.Decimal         `json:"expected_cash"`
	CashDifference *decimal.Decimal        `json:"cash_difference,omitempty"`
	HourlySales    []HourlySales           `json:"hourly_sales"`
}

// GenerateSessionReport recomputes the session aggregates with an hourly
// breakdown. For a closed session the totals match the persisted ones.
func (s *RegisterSessionService) GenerateSessionReport(ctx context.Context, a actor.Context, id uuid.UUID) (*SessionReport, error) {
	if err := a.RequireAny(enum.CapManageRegister, enum.CapViewReports); err != nil {
		return nil, err
	}
	session, err := s.getSession(ctx, a, id)
	if err != nil {
		return nil, err
	}
	totals, err := s.sessionTotals(ctx, a.BusinessID, session.ID)
	if err != nil {
		return nil, err
	}

	expected := session.InitialCash.Add(totals.Cash)
	report := &SessionReport{
		Session:        session,
		TotalSales:     totals.Count,
		TotalCashSales: totals.Cash,
		TotalCardSales: totals.Card,
		TotalTransfer:  totals.Transfer,
		ExpectedCash:   expected,
		HourlySales:    hourlyBuckets(totals.Sales, s.loc),
	}
	if session.FinalCash != nil {
		diff := session.FinalCash.Sub(expected)
		report.CashDifference = &diff
	}
	return report, nil
}

func hourlyBuckets(sales []entity.Sale, loc *time.Location) []HourlySales {
	byHour := make(map[string]*HourlySales)
	for _, sale := range sales {
		hour := sale.CreatedAt.In(loc).Format("15") + ":00"
		b, ok := byHour[hour]
		if !ok {
			b = &HourlySales{Hour: hour, Total: decimal.Zero}
			byHour[hour] = b
		}
		b.Count++
		b.Total = b.Total.Add(sale.TotalAmount)
	}
	out := make([]HourlySales, 0, len(byHour))
	for _, b := range byHour {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// CurrentSession returns the open session of a branch, or nil when closed
func (s *RegisterSessionService) CurrentSession(ctx context.Context, a actor.Context, branchID *uuid.UUID) (*entity.RegisterSession, error) {
	if branchID == nil {
		branchID = a.BranchID
	}
	if branchID == nil {
		return nil, apperror.NewInvalidValue("branch_id", "branch_id is required")
	}
	if err := a.RequireBranch(*branchID); err != nil {
		return nil, err
	}
	branch, err := s.branchRepo.GetByID(ctx, a.BusinessID, *branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, apperror.NewNotFoundError("Branch")
	}
	return s.sessionRepo.GetOpenByBranch(ctx, a.BusinessID, branch.ID)
}

// GetSession returns one session of the business
func (s *RegisterSessionService) GetSession(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.RegisterSession, error) {
	return s.getSession(ctx, a, id)
}

// ListSessions returns sessions newest first
func (s *RegisterSessionService) ListSessions(ctx context.Context, a actor.Context, filter repository.SessionFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.RegisterSession], error) {
	if err := a.RequireAny(enum.CapManageRegister, enum.CapViewReports); err != nil {
		return nil, err
	}
	params.Validate()
	sessions, total, err := s.sessionRepo.List(ctx, a.BusinessID, filter, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(sessions, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

func (s *RegisterSessionService) getSession(ctx context.Context, a actor.Context, id uuid.UUID) (*entity.RegisterSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, a.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NewNotFoundError("Register session")
	}
	return session, nil
}
