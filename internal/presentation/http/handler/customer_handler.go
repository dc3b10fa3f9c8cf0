package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// List handles listing customers with their completed sale counts
func (h *CustomerHandler) List(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var q request.CustomerQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), a, q.Search, q.Params())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "Customers retrieved successfully", "customers", result)
}

// Search is the quick lookup used at the till
func (h *CustomerHandler) Search(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	customers, err := h.customerService.SearchCustomers(c.Request.Context(), a, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customers retrieved successfully", customers)
}

// Top ranks customers by completed spend
func (h *CustomerHandler) Top(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	top, err := h.customerService.TopCustomers(c.Request.Context(), a, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Top customers retrieved successfully", top)
}

// Create handles creating a customer
func (h *CustomerHandler) Create(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CustomerInput
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), a, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Customer created successfully", customer)
}

// Get handles getting a customer with purchase stats and history
func (h *CustomerHandler) Get(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.customerService.GetCustomerDetails(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", details)
}

// Update handles updating a customer
func (h *CustomerHandler) Update(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CustomerInput
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer updated successfully", customer)
}
