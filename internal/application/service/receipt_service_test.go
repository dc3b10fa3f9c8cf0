package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/apperror"
)

func (e *testEnv) customerSale(t *testing.T, a actor.Context, mail string) *entity.Sale {
	t.Helper()
	c := e.customer(t, a, "Mary", mail)
	session := e.openSession(t, a, 0)
	p := e.product(t, a, "Tea", 4, 10, 10)

	in := saleInput(session, enum.PaymentCard, line(p, 2))
	in.CustomerID = &c.ID
	sale, err := e.sales.CreateSale(context.Background(), a, in)
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	return sale
}

func TestGenerateReceipt(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Tea House")
	sale := env.customerSale(t, admin, "mary@example.com")

	r, err := env.receipts.GenerateReceipt(context.Background(), admin, sale.ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if r.Header.BusinessName != "Tea House" || r.Header.BranchName == "" {
		t.Fatalf("expected business and branch header, got %+v", r.Header)
	}
	if r.Subtotal != "8.00" || r.TaxAmount != "0.80" || r.Total != "8.80" {
		t.Fatalf("expected 8.00 + 0.80 = 8.80, got %s + %s = %s", r.Subtotal, r.TaxAmount, r.Total)
	}
	if len(r.Items) != 1 || r.Items[0].Name != "Tea" {
		t.Fatalf("expected one Tea line, got %+v", r.Items)
	}
	if r.Customer != "Mary Doe" || r.CustomerEmail != "mary@example.com" {
		t.Fatalf("expected customer details, got %q <%s>", r.Customer, r.CustomerEmail)
	}

	out := FormatReceipt(r, 32)
	if !bytes.Contains(out, []byte("Tea House")) || !bytes.Contains(out, []byte("8.80")) {
		t.Fatalf("expected printed receipt to carry the business name and total")
	}

	doc, err := env.receipts.ReceiptPDF(context.Background(), admin, sale.ID)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatalf("expected a PDF document")
	}
}

func TestPrintReceiptWithoutPrinter(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	sale := env.customerSale(t, admin, "mary@example.com")

	res, err := env.receipts.PrintReceipt(context.Background(), admin, sale.ID)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if res.Printed || res.Message != "No printer configured" || res.Receipt == nil {
		t.Fatalf("expected an unprinted receipt with a reason, got %+v", res)
	}
}

func TestEmailReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	sale := env.customerSale(t, admin, "mary@example.com")

	res, err := env.receipts.EmailReceipt(ctx, admin, sale.ID, nil)
	if err != nil {
		t.Fatalf("email: %v", err)
	}
	if !res.Sent || res.To != "mary@example.com" {
		t.Fatalf("expected receipt sent to the customer, got %+v", res)
	}
	if len(env.mailer.receipts) != 1 || len(env.mailer.receipts[0].PDF) == 0 {
		t.Fatalf("expected one mail with a PDF attachment")
	}

	res, err = env.receipts.EmailReceipt(ctx, admin, sale.ID, &EmailReceiptInput{Email: strPtr("Boss@Example.com")})
	if err != nil {
		t.Fatalf("email override: %v", err)
	}
	if res.To != "boss@example.com" {
		t.Fatalf("expected override address, got %s", res.To)
	}

	env.mailer.fail = true
	res, err = env.receipts.EmailReceipt(ctx, admin, sale.ID, nil)
	if err != nil {
		t.Fatalf("expected delivery failure to be reported in the result, got %v", err)
	}
	if res.Sent {
		t.Fatalf("expected sent=false on delivery failure")
	}

	env.mailer.configured = false
	_, err = env.receipts.EmailReceipt(ctx, admin, sale.ID, nil)
	expectReason(t, err, "BadRequest")
}

func TestEmailReceiptNeedsAnAddress(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")
	session := env.openSession(t, admin, 0)
	p := env.product(t, admin, "Gum", 1, 0, 5)
	sale, err := env.sales.CreateSale(context.Background(), admin, saleInput(session, enum.PaymentCash, line(p, 1)))
	if err != nil {
		t.Fatalf("sale: %v", err)
	}

	_, err = env.receipts.EmailReceipt(context.Background(), admin, sale.ID, nil)
	expectReason(t, err, "InvalidValue")
}

func TestSalesReportGroupsByDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.register(t, "Shop")
	session := env.openSession(t, admin, 0)
	p := env.product(t, admin, "Rice", 5, 0, 50)

	for _, qty := range []int64{1, 2, 3} {
		sale, err := env.sales.CreateSale(ctx, admin, saleInput(session, enum.PaymentCash, line(p, qty)))
		if err != nil {
			t.Fatalf("sale: %v", err)
		}
		if qty == 3 {
			if _, err := env.sales.CancelSale(ctx, admin, sale.ID); err != nil {
				t.Fatalf("cancel: %v", err)
			}
		}
	}

	today := time.Now().UTC().Format(dateLayout)
	report, err := env.reports.SalesReport(ctx, admin, &ReportQuery{StartDate: today, EndDate: today})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalSales != 2 || !report.TotalAmount.Equal(dec(15)) {
		t.Fatalf("expected 2 completed sales totalling 15, got %d and %s", report.TotalSales, report.TotalAmount)
	}
	if len(report.Days) != 1 || report.Days[0].Date != today {
		t.Fatalf("expected a single day %s, got %+v", today, report.Days)
	}

	top, err := env.reports.TopProducts(ctx, admin, &ReportQuery{})
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(top) != 1 || !top[0].QuantitySold.Equal(dec(3)) {
		t.Fatalf("expected Rice with 3 sold, got %+v", top)
	}

	doc, err := env.reports.SalesReportPDF(ctx, admin, &ReportQuery{})
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatalf("expected a PDF document")
	}
}

func TestSalesReportRejectsBadRange(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Shop")

	_, err := env.reports.SalesReport(context.Background(), admin, &ReportQuery{StartDate: "2024-02-10", EndDate: "2024-02-01"})
	expectReason(t, err, "InvalidValue")
	_, err = env.reports.SalesReport(context.Background(), admin, &ReportQuery{StartDate: "10/02/2024"})
	expectReason(t, err, "InvalidValue")

	cashier := env.cashier(t, admin)
	_, err = env.reports.SalesReport(context.Background(), cashier, &ReportQuery{})
	expectKind(t, err, apperror.KindPermissionDenied)
}
