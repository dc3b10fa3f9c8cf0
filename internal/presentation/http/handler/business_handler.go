package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// BusinessHandler serves the caller's own business
type BusinessHandler struct {
	businessService *service.BusinessService
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(businessService *service.BusinessService) *BusinessHandler {
	return &BusinessHandler{businessService: businessService}
}

// Get returns business details with subscription state and plan limits
func (h *BusinessHandler) Get(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	details, err := h.businessService.Details(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Business retrieved successfully", details)
}

// Stats returns today's sales and catalog counters
func (h *BusinessHandler) Stats(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	stats, err := h.businessService.Stats(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Business stats retrieved successfully", stats)
}

// UpdateSubscription switches the plan and starts a new period
func (h *BusinessHandler) UpdateSubscription(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.UpdateSubscriptionInput
	if !bindJSON(c, &req) {
		return
	}

	business, err := h.businessService.UpdateSubscription(c.Request.Context(), a, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Subscription updated successfully", business)
}
