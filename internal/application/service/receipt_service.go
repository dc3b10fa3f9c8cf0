package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/email"
	"github.com/sangkips/pos-api/pkg/pdf"
	"github.com/sangkips/pos-api/pkg/validation"
)

// ReceiptService composes receipts from stored sales and delivers them
type ReceiptService struct {
	saleRepo     repository.SaleRepository
	businessRepo repository.BusinessRepository
	printer      *PrinterService
	mailer       Mailer
	currency     string
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	saleRepo repository.SaleRepository,
	businessRepo repository.BusinessRepository,
	printer *PrinterService,
	mailer Mailer,
	currency string,
) *ReceiptService {
	return &ReceiptService{
		saleRepo:     saleRepo,
		businessRepo: businessRepo,
		printer:      printer,
		mailer:       mailer,
		currency:     currency,
	}
}

// GenerateReceipt builds the receipt view of a sale
func (s *ReceiptService) GenerateReceipt(ctx context.Context, a actor.Context, saleID uuid.UUID) (*entity.Receipt, error) {
	if err := a.RequireAny(enum.CapMakeSales, enum.CapViewReports); err != nil {
		return nil, err
	}
	sale, err := s.saleRepo.GetByID(ctx, a.BusinessID, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	business, err := s.businessRepo.GetByID(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, apperror.NewNotFoundError("Business")
	}
	return buildReceipt(business, sale, s.currency), nil
}

func buildReceipt(business *entity.Business, sale *entity.Sale, currency string) *entity.Receipt {
	r := &entity.Receipt{
		Header: entity.ReceiptHeader{
			BusinessName: business.Name,
			TaxID:        deref(business.TaxID),
		},
		SaleID:        sale.ID.String(),
		Date:          sale.CreatedAt.Format(timeLayout),
		PaymentMethod: string(sale.PaymentMethod),
		PaymentStatus: string(sale.PaymentStatus),
		Items:         make([]entity.ReceiptLine, 0, len(sale.Items)),
		Subtotal:      sale.Subtotal.StringFixed(2),
		TaxAmount:     sale.TaxAmount.StringFixed(2),
		Discount:      sale.DiscountAmount.StringFixed(2),
		Total:         sale.TotalAmount.StringFixed(2),
		Currency:      currency,
	}
	if sale.Branch != nil {
		r.Header.BranchName = sale.Branch.Name
		r.Header.BranchAddress = deref(sale.Branch.Address)
		r.Header.BranchPhone = deref(sale.Branch.Phone)
	}
	if sale.User != nil {
		r.Cashier = sale.User.FullName()
	}
	if sale.Customer != nil {
		r.Customer = sale.Customer.FullName()
		r.CustomerEmail = deref(sale.Customer.Email)
	}

	for _, item := range sale.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		r.Items = append(r.Items, entity.ReceiptLine{
			Name:      name,
			Quantity:  item.Quantity.String(),
			UnitPrice: item.UnitPrice.StringFixed(2),
			TaxAmount: item.TaxAmount.StringFixed(2),
			Total:     item.TotalAmount.StringFixed(2),
		})
	}
	return r
}

// ReceiptPDF renders the receipt of a sale as a PDF
func (s *ReceiptService) ReceiptPDF(ctx context.Context, a actor.Context, saleID uuid.UUID) ([]byte, error) {
	r, err := s.GenerateReceipt(ctx, a, saleID)
	if err != nil {
		return nil, err
	}
	return pdf.Receipt(r)
}

// PrintReceipt sends the receipt to the thermal printer. A printer failure
// is reported in the result, never as an error.
func (s *ReceiptService) PrintReceipt(ctx context.Context, a actor.Context, saleID uuid.UUID) (*PrintResult, error) {
	if err := a.Require(enum.CapMakeSales); err != nil {
		return nil, err
	}
	r, err := s.GenerateReceipt(ctx, a, saleID)
	if err != nil {
		return nil, err
	}
	return s.printer.Print(ctx, r), nil
}

// EmailReceiptInput optionally overrides the customer's address
type EmailReceiptInput struct {
	Email *string `json:"email" validate:"omitempty,email,max=100"`
}

// EmailResult reports the outcome of a receipt email
type EmailResult struct {
	Sent    bool   `json:"sent"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// EmailReceipt mails the receipt with its PDF to the customer
func (s *ReceiptService) EmailReceipt(ctx context.Context, a actor.Context, saleID uuid.UUID, input *EmailReceiptInput) (*EmailResult, error) {
	if err := a.Require(enum.CapMakeSales); err != nil {
		return nil, err
	}
	if input == nil {
		input = &EmailReceiptInput{}
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return nil, apperror.NewBadRequestError("Email delivery is not configured")
	}

	r, err := s.GenerateReceipt(ctx, a, saleID)
	if err != nil {
		return nil, err
	}
	to := r.CustomerEmail
	if in := optionalString(input.Email); in != nil {
		to = strings.ToLower(*in)
	}
	if to == "" {
		return nil, apperror.NewInvalidValue("email", "The sale has no customer email")
	}

	doc, err := pdf.Receipt(r)
	if err != nil {
		return nil, err
	}
	name := r.Customer
	if name == "" {
		name = "Customer"
	}
	err = s.mailer.SendReceiptEmail(email.ReceiptEmail{
		To:           to,
		CustomerName: name,
		BusinessName: r.Header.BusinessName,
		SaleID:       r.SaleID,
		Date:         r.Date,
		Total:        strings.TrimSpace(r.Currency + " " + r.Total),
		PDF:          doc,
	})
	if err != nil {
		log.Printf("Receipt email for sale %s failed: %v", r.SaleID, err)
		return &EmailResult{Sent: false, To: to, Message: "Email could not be sent"}, nil
	}
	return &EmailResult{Sent: true, To: to, Message: "Receipt sent"}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
