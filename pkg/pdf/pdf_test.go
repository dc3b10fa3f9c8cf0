package pdf

import (
	"bytes"
	"testing"

	"github.com/sangkips/pos-api/internal/domain/entity"
)

func TestReceiptRendersPDF(t *testing.T) {
	out, err := Receipt(&entity.Receipt{
		Header:        entity.ReceiptHeader{BusinessName: "Corner Shop", BranchName: "Main Branch - Corner Shop"},
		SaleID:        "6f1c2b1e-1111-4c1d-9a55-0c6d2f3b4a10",
		Date:          "2024-05-01 10:00",
		Cashier:       "Ana Admin",
		PaymentMethod: "cash",
		PaymentStatus: "completed",
		Items:         []entity.ReceiptLine{{Name: "Coffee", Quantity: "2.000", UnitPrice: "5.00", TaxAmount: "1.60", Total: "11.60"}},
		Subtotal:      "10.00",
		TaxAmount:     "1.60",
		Discount:      "0.00",
		Total:         "11.60",
		Currency:      "$",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", out[:8])
	}
}

func TestSalesReportWithoutRows(t *testing.T) {
	out, err := SalesReportPDF(&SalesReport{BusinessName: "Corner Shop", From: "2024-05-01", To: "2024-05-31", Currency: "$", TotalAmount: "0.00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty pdf")
	}
}
