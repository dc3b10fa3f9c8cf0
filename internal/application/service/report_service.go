package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/actor"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pdf"
	"github.com/shopspring/decimal"
)

const (
	dateLayout        = "2006-01-02"
	defaultReportDays = 30
	topProductsLimit  = 10
)

// ReportService builds read-only sales aggregates. Nothing here writes.
type ReportService struct {
	saleRepo      repository.SaleRepository
	analyticsRepo repository.AnalyticsRepository
	businessRepo  repository.BusinessRepository
	branchRepo    repository.BranchRepository
	loc           *time.Location
	currency      string
}

// NewReportService creates a new report service
func NewReportService(
	saleRepo repository.SaleRepository,
	analyticsRepo repository.AnalyticsRepository,
	businessRepo repository.BusinessRepository,
	branchRepo repository.BranchRepository,
	loc *time.Location,
	currency string,
) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		saleRepo:      saleRepo,
		analyticsRepo: analyticsRepo,
		businessRepo:  businessRepo,
		branchRepo:    branchRepo,
		loc:           loc,
		currency:      currency,
	}
}

// ReportQuery selects an inclusive range of local dates (YYYY-MM-DD).
// Empty dates cover the last thirty days.
type ReportQuery struct {
	StartDate string     `form:"start_date"`
	EndDate   string     `form:"end_date"`
	BranchID  *uuid.UUID `form:"-"`
	Limit     int        `form:"limit"`
}

type dateRange struct {
	from, to         time.Time
	fromDay, lastDay string
}

func (s *ReportService) resolveRange(q *ReportQuery) (*dateRange, error) {
	today := timeNow().In(s.loc)
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)
	if q.EndDate != "" {
		t, err := time.ParseInLocation(dateLayout, q.EndDate, s.loc)
		if err != nil {
			return nil, apperror.NewInvalidValue("end_date", "end_date must be YYYY-MM-DD")
		}
		end = t
	}
	start := end.AddDate(0, 0, -(defaultReportDays - 1))
	if q.StartDate != "" {
		t, err := time.ParseInLocation(dateLayout, q.StartDate, s.loc)
		if err != nil {
			return nil, apperror.NewInvalidValue("start_date", "start_date must be YYYY-MM-DD")
		}
		start = t
	}
	if start.After(end) {
		return nil, apperror.NewInvalidValue("start_date", "start_date must not be after end_date")
	}
	return &dateRange{
		from:    start.UTC(),
		to:      end.AddDate(0, 0, 1).UTC(),
		fromDay: start.Format(dateLayout),
		lastDay: end.Format(dateLayout),
	}, nil
}

// DailySales is one day of the sales report
type DailySales struct {
	Date            string          `json:"date"`
	Count           int64           `json:"total_sales"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	UniqueCustomers int64           `json:"unique_customers"`
}

// SalesReport is the per-day breakdown of completed sales
type SalesReport struct {
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	BranchID    *uuid.UUID      `json:"branch_id,omitempty"`
	TotalSales  int64           `json:"total_sales"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Days        []DailySales    `json:"days"`
}

// SalesReport groups completed sales by local day
func (s *ReportService) SalesReport(ctx context.Context, a actor.Context, q *ReportQuery) (*SalesReport, error) {
	if err := a.Require(enum.CapViewReports); err != nil {
		return nil, err
	}
	rng, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	if q.BranchID != nil {
		branch, err := s.branchRepo.GetByID(ctx, a.BusinessID, *q.BranchID)
		if err != nil {
			return nil, err
		}
		if branch == nil {
			return nil, apperror.NewNotFoundError("Branch")
		}
	}

	sales, err := s.saleRepo.FindAll(ctx, a.BusinessID, repository.SaleFilter{
		BranchID:      q.BranchID,
		DateFrom:      &rng.from,
		DateTo:        &rng.to,
		PaymentStatus: enum.PaymentCompleted,
	})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DailySales)
	customers := make(map[string]map[uuid.UUID]struct{})
	report := &SalesReport{
		StartDate:   rng.fromDay,
		EndDate:     rng.lastDay,
		BranchID:    q.BranchID,
		TotalAmount: decimal.Zero,
	}
	for _, sale := range sales {
		day := sale.CreatedAt.In(s.loc).Format(dateLayout)
		d, ok := byDay[day]
		if !ok {
			d = &DailySales{
				Date:           day,
				Subtotal:       decimal.Zero,
				TaxAmount:      decimal.Zero,
				DiscountAmount: decimal.Zero,
				TotalAmount:    decimal.Zero,
			}
			byDay[day] = d
			customers[day] = make(map[uuid.UUID]struct{})
		}
		d.Count++
		d.Subtotal = d.Subtotal.Add(sale.Subtotal)
		d.TaxAmount = d.TaxAmount.Add(sale.TaxAmount)
		d.DiscountAmount = d.DiscountAmount.Add(sale.DiscountAmount)
		d.TotalAmount = d.TotalAmount.Add(sale.TotalAmount)
		if sale.CustomerID != nil {
			customers[day][*sale.CustomerID] = struct{}{}
		}
		report.TotalSales++
		report.TotalAmount = report.TotalAmount.Add(sale.TotalAmount)
	}

	report.Days = make([]DailySales, 0, len(byDay))
	for day, d := range byDay {
		d.UniqueCustomers = int64(len(customers[day]))
		report.Days = append(report.Days, *d)
	}
	sort.Slice(report.Days, func(i, j int) bool { return report.Days[i].Date < report.Days[j].Date })
	return report, nil
}

// TopProducts ranks products by revenue within the range
func (s *ReportService) TopProducts(ctx context.Context, a actor.Context, q *ReportQuery) ([]repository.TopProductResult, error) {
	if err := a.Require(enum.CapViewReports); err != nil {
		return nil, err
	}
	rng, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = topProductsLimit
	}
	top, err := s.analyticsRepo.TopProducts(ctx, a.BusinessID, rng.from, rng.to, limit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []repository.TopProductResult{}
	}
	return top, nil
}

// SalesReportPDF renders SalesReport as an A4 PDF
func (s *ReportService) SalesReportPDF(ctx context.Context, a actor.Context, q *ReportQuery) ([]byte, error) {
	report, err := s.SalesReport(ctx, a, q)
	if err != nil {
		return nil, err
	}
	business, err := s.businessRepo.GetByID(ctx, a.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, apperror.NewNotFoundError("Business")
	}

	doc := &pdf.SalesReport{
		BusinessName: business.Name,
		From:         report.StartDate,
		To:           report.EndDate,
		Currency:     s.currency,
		TotalCount:   report.TotalSales,
		TotalAmount:  report.TotalAmount.StringFixed(2),
	}
	if q.BranchID != nil {
		branch, err := s.branchRepo.GetByID(ctx, a.BusinessID, *q.BranchID)
		if err != nil {
			return nil, err
		}
		if branch != nil {
			doc.BranchName = branch.Name
		}
	}
	for _, d := range report.Days {
		doc.Rows = append(doc.Rows, pdf.ReportRow{
			Date:            d.Date,
			Count:           d.Count,
			Subtotal:        d.Subtotal.StringFixed(2),
			Tax:             d.TaxAmount.StringFixed(2),
			Discount:        d.DiscountAmount.StringFixed(2),
			Total:           d.TotalAmount.StringFixed(2),
			UniqueCustomers: d.UniqueCustomers,
		})
	}
	return pdf.SalesReportPDF(doc)
}
