package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
	loc         *time.Location
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService, loc *time.Location) *SaleHandler {
	return &SaleHandler{saleService: saleService, loc: loc}
}

// List handles listing sales
// @Summary List sales
// @Tags sales
// @Param date_from query string false "YYYY-MM-DD or RFC3339, inclusive"
// @Param date_to query string false "YYYY-MM-DD (whole day) or RFC3339, exclusive"
// @Success 200 {object} response.APIResponse
// @Router /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var q request.SaleQuery
	if !bindQuery(c, &q) {
		return
	}
	filter, err := q.Filter(h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.saleService.ListSales(c.Request.Context(), a, filter, q.Params())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "Sales retrieved successfully", "sales", result)
}

// Create handles recording a sale
// @Summary Create sale
// @Description Records a sale against an open register session and decrements stock
// @Tags sales
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Client-generated key; a retry replays the first response"
// @Param request body service.CreateSaleInput true "Sale"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CreateSaleInput
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), a, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale created successfully", sale)
}

// Get handles getting a sale with its items
func (h *SaleHandler) Get(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}

// Cancel reverses a completed sale and restores its stock
func (h *SaleHandler) Cancel(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.CancelSale(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale cancelled successfully", sale)
}
