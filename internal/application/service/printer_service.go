package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/printer"
)

const printTimeout = 10 * time.Second

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer   printer.Printer
	charWidth int
}

// NewPrinterService creates a new printer service.
func NewPrinterService(p printer.Printer, charWidth int) *PrinterService {
	if p == nil {
		p = printer.NewNullPrinter()
	}
	if charWidth <= 0 {
		charWidth = printer.Width80mm
	}
	return &PrinterService{printer: p, charWidth: charWidth}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	CharWidth  int    `json:"char_width"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(a actor.Context) (*PrinterStatus, error) {
	if err := a.RequireAny(enum.CapManageSettings, enum.CapMakeSales); err != nil {
		return nil, err
	}
	kind := s.printer.Kind()
	return &PrinterStatus{
		Configured: kind != "none",
		Connected:  s.printer.IsConnected(),
		Type:       kind,
		CharWidth:  s.charWidth,
	}, nil
}

// PrintResult reports whether a document reached the printer.
type PrintResult struct {
	Printed bool            `json:"printed"`
	Message string          `json:"message"`
	Receipt *entity.Receipt `json:"receipt"`
}

// TestPrint sends a sample receipt to the printer.
func (s *PrinterService) TestPrint(ctx context.Context, a actor.Context) (*PrintResult, error) {
	if err := a.Require(enum.CapManageSettings); err != nil {
		return nil, err
	}
	receipt := &entity.Receipt{
		Header: entity.ReceiptHeader{
			BusinessName: "PRINTER TEST",
			BranchName:   "Test Branch",
			BranchPhone:  "+1 000 000 0000",
		},
		SaleID:        "TEST-001",
		Date:          timeNow().Format("2006-01-02 15:04"),
		Cashier:       a.Username,
		PaymentMethod: string(enum.PaymentCash),
		PaymentStatus: string(enum.PaymentCompleted),
		Items: []entity.ReceiptLine{
			{Name: "Test Item 1", Quantity: "1", UnitPrice: "10.00", TaxAmount: "0.00", Total: "10.00"},
			{Name: "Test Item 2", Quantity: "2", UnitPrice: "5.00", TaxAmount: "0.00", Total: "10.00"},
		},
		Subtotal:  "20.00",
		TaxAmount: "0.00",
		Discount:  "0.00",
		Total:     "20.00",
	}
	return s.Print(ctx, receipt), nil
}

// Print formats and sends a receipt. Printer failures are logged and
// reported in the result rather than returned.
func (s *PrinterService) Print(ctx context.Context, r *entity.Receipt) *PrintResult {
	ctx, cancel := context.WithTimeout(ctx, printTimeout)
	defer cancel()

	if err := s.printer.Print(ctx, FormatReceipt(r, s.charWidth)); err != nil {
		log.Printf("Printer error (sale %s): %v", r.SaleID, err)
		return &PrintResult{Printed: false, Message: "Printer unavailable", Receipt: r}
	}
	if s.printer.Kind() == "none" {
		return &PrintResult{Printed: false, Message: "No printer configured", Receipt: r}
	}
	return &PrintResult{Printed: true, Message: "Receipt printed", Receipt: r}
}

// FormatReceipt converts a Receipt into ESC/POS bytes for a printer that
// fits width characters per line.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.BusinessName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	for _, line := range []string{r.Header.BranchName, r.Header.BranchAddress, r.Header.BranchPhone} {
		if line != "" {
			doc.Text(line)
		}
	}
	if r.Header.TaxID != "" {
		doc.TextF("Tax ID: %s", r.Header.TaxID)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Sale:", r.SaleID).
		KeyValue("Date:", r.Date)
	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}
	if r.Customer != "" {
		doc.KeyValue("Customer:", r.Customer)
	}
	doc.KeyValue("Payment:", r.PaymentMethod)
	if r.PaymentStatus == string(enum.PaymentCancelled) {
		doc.SetBold(true).Text("*** CANCELLED ***").SetBold(false)
	}

	doc.Separator('-')

	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, item.Total)
		if item.Quantity != "1" {
			doc.TextF("  @ %s each", item.UnitPrice)
		}
	}

	doc.Separator('-')

	doc.KeyValue("Subtotal:", r.Subtotal)
	if r.TaxAmount != "0.00" {
		doc.KeyValue("Tax:", r.TaxAmount)
	}
	if r.Discount != "0.00" && r.Discount != "" {
		doc.KeyValue("Discount:", "-"+r.Discount)
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", strings.TrimSpace(r.Currency+" "+r.Total)).
		SetBold(false)

	doc.Separator('-')

	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Thank you for your purchase!").
		LineFeed().
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
