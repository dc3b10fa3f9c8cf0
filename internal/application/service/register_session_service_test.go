package service

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

func TestSecondOpenOnBranchConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")

	session := env.openSession(t, admin, 100)
	if !session.InitialCash.Equal(dec(100)) || session.Status != enum.SessionStatusOpen {
		t.Fatalf("expected open session with 100 initial cash, got %s %s", session.Status, session.InitialCash)
	}

	_, err := env.sessions.OpenSession(ctx, admin, &OpenSessionInput{InitialCash: dec(50)})
	expectReason(t, err, "SessionAlreadyOpen")

	current, err := env.sessions.CurrentSession(ctx, admin, nil)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current == nil || current.ID != session.ID {
		t.Fatalf("expected current session %s, got %v", session.ID, current)
	}
}

func TestOpenSessionRejectsNegativeCash(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	_, err := env.sessions.OpenSession(context.Background(), admin, &OpenSessionInput{InitialCash: dec(-1)})
	expectReason(t, err, "InvalidAmount")
}

func TestCloseSessionReconcilesCash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	session := env.openSession(t, admin, 100)
	cash := env.product(t, admin, "Cash Item", 40, 0, 10)
	card := env.product(t, admin, "Card Item", 60, 0, 10)

	if _, err := env.sales.CreateSale(ctx, admin, saleInput(session, enum.PaymentCash, line(cash, 1))); err != nil {
		t.Fatalf("cash sale: %v", err)
	}
	if _, err := env.sales.CreateSale(ctx, admin, saleInput(session, enum.PaymentCard, line(card, 1))); err != nil {
		t.Fatalf("card sale: %v", err)
	}

	closed, err := env.sessions.CloseSession(ctx, admin, session.ID, &CloseSessionInput{FinalCash: dec(135)})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	assertClosed(t, closed, "40", "60", "140", "-5")

	report, err := env.sessions.GenerateSessionReport(ctx, admin, session.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalSales != 2 {
		t.Fatalf("expected 2 sales in report, got %d", report.TotalSales)
	}
	if !report.TotalCashSales.Equal(closed.TotalCashSales) || !report.TotalCardSales.Equal(closed.TotalCardSales) {
		t.Fatalf("expected report totals to match persisted session")
	}
	if !report.ExpectedCash.Equal(*closed.ExpectedCash) {
		t.Fatalf("expected report expected cash %s, got %s", closed.ExpectedCash, report.ExpectedCash)
	}
	if report.CashDifference == nil || !report.CashDifference.Equal(dec(-5)) {
		t.Fatalf("expected report difference -5, got %v", report.CashDifference)
	}
	if len(report.HourlySales) == 0 {
		t.Fatalf("expected hourly buckets")
	}

	_, err = env.sessions.CloseSession(ctx, admin, session.ID, &CloseSessionInput{FinalCash: dec(135)})
	expectReason(t, err, "SessionNotOpen")

	// a closed register frees the branch
	env.openSession(t, admin, 0)
}

func TestCancelledSalesAreExcludedFromSessionTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	session := env.openSession(t, admin, 10)
	p := env.product(t, admin, "Item", 25, 0, 10)

	kept, err := env.sales.CreateSale(ctx, admin, saleInput(session, enum.PaymentCash, line(p, 1)))
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	voided, err := env.sales.CreateSale(ctx, admin, saleInput(session, enum.PaymentCash, line(p, 2)))
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := env.sales.CancelSale(ctx, admin, voided.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	closed, err := env.sessions.CloseSession(ctx, admin, session.ID, &CloseSessionInput{FinalCash: dec(35)})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed.TotalCashSales.Equal(kept.TotalAmount) {
		t.Fatalf("expected cash sales %s, got %s", kept.TotalAmount, closed.TotalCashSales)
	}
	if !closed.CashDifference.IsZero() {
		t.Fatalf("expected zero difference, got %s", closed.CashDifference)
	}
}

func TestOpenSessionRequiresRegisterCapability(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	cashier := env.cashier(t, admin)
	cashier.Capabilities = enum.NewCapabilitySet(enum.CapMakeSales)

	_, err := env.sessions.OpenSession(context.Background(), cashier, &OpenSessionInput{})
	expectKind(t, err, apperror.KindPermissionDenied)
}

func TestHourlyBucketsUseLocation(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	sales := []entity.Sale{
		{CreatedAt: time.Date(2024, 1, 1, 6, 15, 0, 0, time.UTC), TotalAmount: dec(10)},
		{CreatedAt: time.Date(2024, 1, 1, 6, 45, 0, 0, time.UTC), TotalAmount: dec(5)},
		{CreatedAt: time.Date(2024, 1, 1, 8, 5, 0, 0, time.UTC), TotalAmount: dec(1)},
	}
	buckets := hourlyBuckets(sales, loc)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Hour != "09:00" || buckets[0].Count != 2 || !buckets[0].Total.Equal(dec(15)) {
		t.Fatalf("expected 09:00 bucket with 2 sales totalling 15, got %+v", buckets[0])
	}
	if buckets[1].Hour != "11:00" {
		t.Fatalf("expected 11:00 bucket, got %s", buckets[1].Hour)
	}
}

func assertClosed(t *testing.T, s *entity.RegisterSession, cash, card, expected, diff string) {
	t.Helper()
	if s.Status != enum.SessionStatusClosed || s.ClosingTime == nil {
		t.Fatalf("expected closed session with closing time, got %s", s.Status)
	}
	if !s.TotalCashSales.Equal(decStr(t, cash)) {
		t.Fatalf("expected cash sales %s, got %s", cash, s.TotalCashSales)
	}
	if !s.TotalCardSales.Equal(decStr(t, card)) {
		t.Fatalf("expected card sales %s, got %s", card, s.TotalCardSales)
	}
	if s.ExpectedCash == nil || !s.ExpectedCash.Equal(decStr(t, expected)) {
		t.Fatalf("expected expected_cash %s, got %v", expected, s.ExpectedCash)
	}
	if s.CashDifference == nil || !s.CashDifference.Equal(decStr(t, diff)) {
		t.Fatalf("expected cash_difference %s, got %v", diff, s.CashDifference)
	}
}


func TestPinnedCashierStaysOnOwnBranch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	cashier := env.cashier(t, admin)
	other, err := env.branches.CreateBranch(ctx, admin, &BranchInput{Name: "Westside"})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}

	_, err = env.sessions.OpenSession(ctx, cashier, &OpenSessionInput{BranchID: &other.ID})
	expectKind(t, err, apperror.KindPermissionDenied)
	_, err = env.sessions.CurrentSession(ctx, cashier, &other.ID)
	expectKind(t, err, apperror.KindPermissionDenied)

	// the admin spans every branch; the cashier still cannot ring up there
	session, err := env.sessions.OpenSession(ctx, admin, &OpenSessionInput{BranchID: &other.ID})
	if err != nil {
		t.Fatalf("admin open: %v", err)
	}
	p := env.product(t, admin, "Gum", 1, 0, 5)
	_, err = env.sales.CreateSale(ctx, cashier, saleInput(session, enum.PaymentCash, line(p, 1)))
	expectKind(t, err, apperror.KindPermissionDenied)

	own := env.openSession(t, cashier, 0)
	if own.BranchID != *cashier.BranchID {
		t.Fatalf("expected the cashier's session on their branch")
	}

	list, err := env.branches.ListBranches(ctx, cashier, repository.BranchFilter{}, pagination.DefaultPagination())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Pagination.Total != 1 || list.Items[0].ID != *cashier.BranchID {
		t.Fatalf("expected only the cashier's branch, got %d", list.Pagination.Total)
	}
	all, err := env.branches.ListBranches(ctx, admin, repository.BranchFilter{}, pagination.DefaultPagination())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Pagination.Total != 2 {
		t.Fatalf("expected the admin to see 2 branches, got %d", all.Pagination.Total)
	}
}
