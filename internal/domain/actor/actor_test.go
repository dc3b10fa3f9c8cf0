package actor

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/apperror"
)

func TestRequireDeniesMissingCapability(t *testing.T) {
	cashier := New(uuid.New(), uuid.New(), nil, enum.RoleCashier, enum.NewCapabilitySet(enum.RoleCashier.DefaultCapabilities()...))

	if err := cashier.Require(enum.CapMakeSales); err != nil {
		t.Fatalf("expected cashier to make sales, got %v", err)
	}
	err := cashier.Require(enum.CapManageSales)
	if err == nil {
		t.Fatalf("expected permission denied for manage_sales")
	}
	if apperror.KindOf(err) != apperror.KindPermissionDenied {
		t.Fatalf("expected PermissionDenied kind, got %s", apperror.KindOf(err))
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 403 {
		t.Fatalf("expected 403 app error, got %v", err)
	}
}

func TestAdminImpliesSalesAndCustomerAccess(t *testing.T) {
	admin := New(uuid.New(), uuid.New(), nil, enum.RoleAdmin, enum.NewCapabilitySet(enum.RoleAdmin.DefaultCapabilities()...))
	for _, c := range []enum.Capability{enum.CapMakeSales, enum.CapViewCustomers, enum.CapManageSettings} {
		if !admin.Has(c) {
			t.Fatalf("expected admin to hold %s", c)
		}
	}
	if err := admin.RequireAny(enum.CapMakeSales, enum.CapManageSales); err != nil {
		t.Fatalf("expected RequireAny to pass, got %v", err)
	}
}

func TestBranchScope(t *testing.T) {
	main, other := uuid.New(), uuid.New()
	cashier := New(uuid.New(), uuid.New(), &main, enum.RoleCashier, enum.NewCapabilitySet(enum.RoleCashier.DefaultCapabilities()...))
	if err := cashier.RequireBranch(main); err != nil {
		t.Fatalf("expected access to own branch, got %v", err)
	}
	if err := cashier.RequireBranch(other); apperror.KindOf(err) != apperror.KindPermissionDenied {
		t.Fatalf("expected PermissionDenied for another branch, got %v", err)
	}

	admin := New(uuid.New(), uuid.New(), &main, enum.RoleAdmin, enum.NewCapabilitySet(enum.RoleAdmin.DefaultCapabilities()...))
	if admin.BranchScope() != nil || admin.RequireBranch(other) != nil {
		t.Fatalf("expected manage_branches to span every branch")
	}
	unpinned := New(uuid.New(), uuid.New(), nil, enum.RoleCashier, enum.NewCapabilitySet(enum.RoleCashier.DefaultCapabilities()...))
	if unpinned.RequireBranch(other) != nil {
		t.Fatalf("expected an actor without a branch to be unrestricted")
	}
}
