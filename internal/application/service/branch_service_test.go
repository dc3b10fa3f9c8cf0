package service

import (
	"context"
	"testing"

	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

func TestDeactivateBranchWithOpenSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	session := env.openSession(t, admin, 20)

	_, err := env.branches.DeactivateBranch(ctx, admin, *admin.BranchID)
	expectReason(t, err, "OpenSessionsExist")

	if _, err := env.sessions.CloseSession(ctx, admin, session.ID, &CloseSessionInput{FinalCash: dec(20)}); err != nil {
		t.Fatalf("close: %v", err)
	}
	branch, err := env.branches.DeactivateBranch(ctx, admin, *admin.BranchID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if branch.Status != enum.StatusInactive {
		t.Fatalf("expected inactive branch, got %s", branch.Status)
	}

	// an inactive branch cannot open a register
	_, err = env.sessions.OpenSession(ctx, admin, &OpenSessionInput{})
	expectKind(t, err, apperror.KindValidation)
}

func TestCreateBranchNameAndPlanLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")

	if _, err := env.branches.CreateBranch(ctx, admin, &BranchInput{Name: "Westside"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// the basic plan in tests allows two branches, the main one included
	_, err := env.branches.CreateBranch(ctx, admin, &BranchInput{Name: "Eastside"})
	expectReason(t, err, "LimitReached")

	if _, err := env.businesses.UpdateSubscription(ctx, admin, &UpdateSubscriptionInput{Plan: "enterprise"}); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	_, err = env.branches.CreateBranch(ctx, admin, &BranchInput{Name: "Westside"})
	expectReason(t, err, "DuplicateName")
	if _, err := env.branches.CreateBranch(ctx, admin, &BranchInput{Name: "Eastside"}); err != nil {
		t.Fatalf("create after upgrade: %v", err)
	}
}

func TestBranchDetailsAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	session := env.openSession(t, admin, 0)
	p := env.product(t, admin, "Pen", 2, 0, 10)

	for i := 0; i < 2; i++ {
		if _, err := env.sales.CreateSale(ctx, admin, saleInput(session, enum.PaymentCash, line(p, 1))); err != nil {
			t.Fatalf("sale: %v", err)
		}
	}

	details, err := env.branches.GetBranchDetails(ctx, admin, *admin.BranchID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(details.OpenRegisters) != 1 || details.OpenRegisters[0].ID != session.ID {
		t.Fatalf("expected the open session in details, got %+v", details.OpenRegisters)
	}
	if details.SalesStats.TotalSales != 2 || !details.SalesStats.TotalRevenue.Equal(dec(4)) {
		t.Fatalf("expected 2 sales totalling 4, got %+v", details.SalesStats)
	}
	if !details.SalesStats.AverageSale.Equal(dec(2)) {
		t.Fatalf("expected average 2, got %s", details.SalesStats.AverageSale)
	}
	if len(details.Users) != 1 {
		t.Fatalf("expected the admin assigned to the branch, got %d users", len(details.Users))
	}

	list, err := env.branches.ListBranches(ctx, admin, repository.BranchFilter{}, pagination.DefaultPagination())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].OpenRegisters != 1 || list.Items[0].TotalSales != 2 {
		t.Fatalf("expected one branch with one open register and two sales, got %+v", list.Items)
	}
}

func TestCashierCannotManageBranches(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	cashier := env.cashier(t, admin)

	_, err := env.branches.CreateBranch(context.Background(), cashier, &BranchInput{Name: "Nope"})
	expectKind(t, err, apperror.KindPermissionDenied)
	_, err = env.branches.BranchSummary(context.Background(), cashier, *admin.BranchID)
	expectKind(t, err, apperror.KindPermissionDenied)
}
