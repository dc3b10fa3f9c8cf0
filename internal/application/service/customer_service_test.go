package service

import (
	"context"
	"testing"

	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

func strPtr(s string) *string { return &s }

func (e *testEnv) customer(t *testing.T, a actor.Context, first, mail string) *entity.Customer {
	t.Helper()
	c, err := e.customers.CreateCustomer(context.Background(), a, &CustomerInput{
		FirstName: first,
		LastName:  "Doe",
		Email:     strPtr(mail),
		Phone:     strPtr("+254 712 345 678"),
	})
	if err != nil {
		t.Fatalf("create customer %s: %v", first, err)
	}
	return c
}

func TestCustomerEmailIsUniquePerBusiness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	other := env.register(t, "Other Shop")

	env.customer(t, admin, "Jane", "jane@example.com")
	_, err := env.customers.CreateCustomer(ctx, admin, &CustomerInput{FirstName: "Janet", Email: strPtr(" JANE@example.com ")})
	expectReason(t, err, "DuplicateEmail")

	// another business may reuse the address
	env.customer(t, other, "Jane", "jane@example.com")
}

func TestCustomerPhoneNeedsTenDigits(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	_, err := env.customers.CreateCustomer(context.Background(), admin, &CustomerInput{FirstName: "Short", Phone: strPtr("12-34")})
	expectReason(t, err, "InvalidValue")
}

func TestCustomerDetailsCountCompletedSalesOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	jane := env.customer(t, admin, "Jane", "jane@example.com")
	session := env.openSession(t, admin, 0)
	p := env.product(t, admin, "Bread", 10, 0, 20)

	for _, qty := range []int64{1, 3, 2} {
		in := saleInput(session, enum.PaymentCash, line(p, qty))
		in.CustomerID = &jane.ID
		sale, err := env.sales.CreateSale(ctx, admin, in)
		if err != nil {
			t.Fatalf("sale: %v", err)
		}
		if qty == 2 {
			if _, err := env.sales.CancelSale(ctx, admin, sale.ID); err != nil {
				t.Fatalf("cancel: %v", err)
			}
		}
	}

	details, err := env.customers.GetCustomerDetails(ctx, admin, jane.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.Stats.TotalPurchases != 2 || !details.Stats.TotalSpent.Equal(dec(40)) {
		t.Fatalf("expected 2 purchases totalling 40, got %+v", details.Stats)
	}
	if !details.Stats.AveragePurchase.Equal(dec(20)) {
		t.Fatalf("expected average 20, got %s", details.Stats.AveragePurchase)
	}
	if details.Stats.LastPurchase == nil {
		t.Fatalf("expected a last purchase time")
	}
	if len(details.PurchaseHistory) != 3 {
		t.Fatalf("expected history to list all 3 sales, got %d", len(details.PurchaseHistory))
	}

	list, err := env.customers.ListCustomers(ctx, admin, "jan", pagination.DefaultPagination())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].TotalSales != 2 {
		t.Fatalf("expected Jane with 2 completed sales, got %+v", list.Items)
	}

	top, err := env.customers.TopCustomers(ctx, admin, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].CustomerID != jane.ID || !top[0].TotalSpent.Equal(dec(40)) {
		t.Fatalf("expected Jane on top with 40 spent, got %+v", top)
	}
}

func TestCashierCanAddButNotEditCustomers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	cashier := env.cashier(t, admin)

	c := env.customer(t, cashier, "Walk", "walk@example.com")
	_, err := env.customers.UpdateCustomer(ctx, cashier, c.ID, &CustomerInput{FirstName: "Walked"})
	expectKind(t, err, apperror.KindPermissionDenied)

	found, err := env.customers.SearchCustomers(ctx, cashier, "walk")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected one match, got %d", len(found))
	}
}
