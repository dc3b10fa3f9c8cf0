// Package pdf renders receipts and sales reports as PDF documents.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/skip2/go-qrcode"
)

const (
	receiptWidth = 80.0 // mm, matches 80mm thermal paper
	lineHeight   = 5.0
	qrSize       = 30.0
)

// Receipt renders a single sale receipt on an 80mm wide page with a QR code
// of the sale id at the bottom.
func Receipt(r *entity.Receipt) ([]byte, error) {
	height := 95.0 + float64(len(r.Items))*lineHeight*2 + qrSize
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: receiptWidth, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w := receiptWidth - 8

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(w, 6, tr(r.Header.BusinessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	for _, line := range []string{r.Header.BranchName, r.Header.BranchAddress, r.Header.BranchPhone} {
		if line != "" {
			pdf.CellFormat(w, 4, tr(line), "", 1, "C", false, 0, "")
		}
	}
	if r.Header.TaxID != "" {
		pdf.CellFormat(w, 4, tr("Tax ID: "+r.Header.TaxID), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	keyValue := func(k, v string) {
		pdf.CellFormat(w/2, 4, tr(k), "", 0, "L", false, 0, "")
		pdf.CellFormat(w/2, 4, tr(v), "", 1, "R", false, 0, "")
	}
	keyValue("Receipt:", shortID(r.SaleID))
	keyValue("Date:", r.Date)
	keyValue("Cashier:", r.Cashier)
	if r.Customer != "" {
		keyValue("Customer:", r.Customer)
	}
	keyValue("Payment:", r.PaymentMethod)
	if r.PaymentStatus == "cancelled" {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(w, 5, "CANCELLED", "", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 8)
	}
	pdf.Line(4, pdf.GetY()+1, receiptWidth-4, pdf.GetY()+1)
	pdf.Ln(2)

	for _, item := range r.Items {
		pdf.CellFormat(w, 4, tr(item.Name), "", 1, "L", false, 0, "")
		pdf.CellFormat(w*0.6, 4, fmt.Sprintf("  %s x %s", item.Quantity, item.UnitPrice), "", 0, "L", false, 0, "")
		pdf.CellFormat(w*0.4, 4, item.Total, "", 1, "R", false, 0, "")
	}
	pdf.Line(4, pdf.GetY()+1, receiptWidth-4, pdf.GetY()+1)
	pdf.Ln(2)

	money := func(v string) string { return tr(r.Currency + v) }
	keyValue("Subtotal:", money(r.Subtotal))
	keyValue("Tax:", money(r.TaxAmount))
	if r.Discount != "" && r.Discount != "0.00" {
		keyValue("Discount:", "-"+money(r.Discount))
	}
	pdf.SetFont("Arial", "B", 10)
	keyValue("TOTAL:", money(r.Total))
	pdf.Ln(3)

	png, err := qrcode.Encode(r.SaleID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", (receiptWidth-qrSize)/2, pdf.GetY(), qrSize, qrSize, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrSize + 2)

	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(w, 4, "Thank you for your business!", "", 1, "C", false, 0, "")

	return output(pdf)
}

// ReportRow is one day of the sales report.
type ReportRow struct {
	Date            string
	Count           int64
	Subtotal        string
	Tax             string
	Discount        string
	Total           string
	UniqueCustomers int64
}

// SalesReport is the input for SalesReportPDF.
type SalesReport struct {
	BusinessName string
	BranchName   string
	From         string
	To           string
	Currency     string
	Rows         []ReportRow
	TotalCount   int64
	TotalAmount  string
}

// SalesReportPDF renders the per-day sales report on A4.
func SalesReportPDF(rep *SalesReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(rep.BusinessName+" - Sales Report"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Date Range: %s to %s", rep.From, rep.To), "", 1, "L", false, 0, "")
	if rep.BranchName != "" {
		pdf.CellFormat(0, 8, tr("Branch: "+rep.BranchName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 8, fmt.Sprintf("Total Sales: %d", rep.TotalCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Total Revenue: %s%s", rep.Currency, rep.TotalAmount)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{30, 20, 30, 28, 28, 30, 24}
	headers := []string{"Date", "Sales", "Subtotal", "Tax", "Discount", "Total", "Customers"}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range rep.Rows {
		cells := []string{
			row.Date,
			fmt.Sprintf("%d", row.Count),
			row.Subtotal,
			row.Tax,
			row.Discount,
			row.Total,
			fmt.Sprintf("%d", row.UniqueCustomers),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "C"
			}
			pdf.CellFormat(widths[i], 8, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(rep.Rows) == 0 {
		pdf.CellFormat(190, 8, "No sales in this period", "1", 1, "C", false, 0, "")
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
