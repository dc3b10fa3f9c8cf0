package service

import (
	"context"
	"testing"

	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

func userInput(username string, role enum.Role) *CreateUserInput {
	return &CreateUserInput{
		FirstName:            "Test",
		Username:             username,
		Email:                username + "@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
		Role:                 role,
	}
}

func TestLastAdminCannotBeRemoved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")

	manager, err := env.users.CreateUser(ctx, admin, userInput("manager1", enum.RoleManager))
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	granted, err := env.users.SetPermissions(ctx, admin, manager.ID, &SetPermissionsInput{
		Permissions: []string{"manage_users", "manage_users"},
	})
	if err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	if len(granted.Capabilities) != 1 || granted.Capabilities[0] != "manage_users" {
		t.Fatalf("expected only manage_users, got %v", granted.Capabilities)
	}

	_, err = env.users.DeactivateUser(ctx, actorFor(granted.User), admin.UserID)
	expectReason(t, err, "LastAdmin")

	// demoting the only admin is refused the same way
	_, err = env.users.UpdateUser(ctx, admin, admin.UserID, &UpdateUserInput{
		FirstName: "Admin",
		Email:     "demoted@example.com",
		Role:      enum.RoleManager,
	})
	expectReason(t, err, "LastAdmin")

	// with a second admin the first may go
	second, err := env.users.CreateUser(ctx, admin, userInput("admin2", enum.RoleAdmin))
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	deactivated, err := env.users.DeactivateUser(ctx, actorFor(second.User), admin.UserID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.Status != enum.StatusInactive {
		t.Fatalf("expected inactive admin, got %s", deactivated.Status)
	}
}

func TestUserCannotDeactivateSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	_, err := env.users.DeactivateUser(context.Background(), admin, admin.UserID)
	expectReason(t, err, "SelfDeactivation")
}

func TestCreateUserUniquenessAndPlanLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")

	if _, err := env.users.CreateUser(ctx, admin, userInput("clerk_one", enum.RoleCashier)); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := env.users.CreateUser(ctx, admin, userInput("clerk_one", enum.RoleCashier))
	expectReason(t, err, "DuplicateName")

	sameEmail := userInput("clerk_two", enum.RoleCashier)
	sameEmail.Email = "CLERK_ONE@example.com"
	_, err = env.users.CreateUser(ctx, admin, sameEmail)
	expectReason(t, err, "DuplicateEmail")

	if _, err := env.users.CreateUser(ctx, admin, userInput("clerk_two", enum.RoleCashier)); err != nil {
		t.Fatalf("create: %v", err)
	}
	// admin plus two clerks fills the basic plan in tests
	_, err = env.users.CreateUser(ctx, admin, userInput("clerk_three", enum.RoleCashier))
	expectReason(t, err, "LimitReached")

	list, err := env.users.ListUsers(ctx, admin, repository.UserFilter{}, pagination.DefaultPagination())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Pagination.Total != 3 {
		t.Fatalf("expected 3 users, got %d", list.Pagination.Total)
	}
}

func TestSetPermissionsRejectsUnknownCapability(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	cashier := env.cashier(t, admin)

	_, err := env.users.SetPermissions(context.Background(), admin, cashier.UserID, &SetPermissionsInput{
		Permissions: []string{"make_sales", "launch_rockets"},
	})
	expectKind(t, err, apperror.KindValidation)
}

func TestPermissionOverridesReplaceRoleDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	cashier := env.cashier(t, admin)

	detail, err := env.users.SetPermissions(ctx, admin, cashier.UserID, &SetPermissionsInput{
		Permissions: []string{"manage_sales"},
	})
	if err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	a := actorFor(detail.User)
	if !a.Has(enum.CapMakeSales) {
		t.Fatalf("expected manage_sales to imply make_sales")
	}
	if a.Has(enum.CapManageRegister) {
		t.Fatalf("expected overrides to replace role defaults")
	}

	// an empty list restores the role defaults
	detail, err = env.users.SetPermissions(ctx, admin, cashier.UserID, &SetPermissionsInput{})
	if err != nil {
		t.Fatalf("reset permissions: %v", err)
	}
	if !actorFor(detail.User).Has(enum.CapManageRegister) {
		t.Fatalf("expected cashier defaults after reset")
	}
}

func TestCashierCannotManageUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	cashier := env.cashier(t, admin)

	_, err := env.users.CreateUser(context.Background(), cashier, userInput("sneaky", enum.RoleAdmin))
	expectKind(t, err, apperror.KindPermissionDenied)
}
