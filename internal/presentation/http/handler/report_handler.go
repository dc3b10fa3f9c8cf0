package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// ReportHandler serves sales analytics
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// reportQuery reads start_date, end_date, branch_id and limit
func reportQuery(c *gin.Context) (*service.ReportQuery, bool) {
	var q service.ReportQuery
	if !bindQuery(c, &q) {
		return nil, false
	}
	branchID, err := request.ParseUUID("branch_id", c.Query("branch_id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	q.BranchID = branchID
	return &q, true
}

// SalesReport handles the per-day sales report
// @Summary Sales report
// @Tags sales
// @Param start_date query string false "YYYY-MM-DD, defaults to 30 days ago"
// @Param end_date query string false "YYYY-MM-DD, inclusive, defaults to today"
// @Param branch_id query string false "branch filter"
// @Success 200 {object} response.APIResponse
// @Router /sales/report [get]
func (h *ReportHandler) SalesReport(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	q, ok := reportQuery(c)
	if !ok {
		return
	}

	report, err := h.reportService.SalesReport(c.Request.Context(), a, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales report generated successfully", report)
}

func (h *ReportHandler) SalesReportPDF(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	q, ok := reportQuery(c)
	if !ok {
		return
	}

	doc, err := h.reportService.SalesReportPDF(c.Request.Context(), a, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.PDF(c, "sales-report.pdf", doc)
}

func (h *ReportHandler) TopProducts(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	q, ok := reportQuery(c)
	if !ok {
		return
	}

	top, err := h.reportService.TopProducts(c.Request.Context(), a, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Top products retrieved successfully", top)
}
