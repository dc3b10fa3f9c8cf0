package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	productService *service.ProductService
	loc            *time.Location
}

// NewProductHandler creates a new product handler. Bare dates in movement
// filters are read in loc.
func NewProductHandler(productService *service.ProductService, loc *time.Location) *ProductHandler {
	return &ProductHandler{productService: productService, loc: loc}
}

// List handles listing products
// @Summary List products
// @Tags products
// @Param search query string false "name, SKU or barcode"
// @Param category_id query string false "category filter"
// @Param status query string false "active or inactive"
// @Param unit_type query string false "unit, weight or combo"
// @Success 200 {object} response.APIResponse
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var q request.ProductQuery
	if !bindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.productService.ListProducts(c.Request.Context(), a, filter, q.Params())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "Products retrieved successfully", "products", result)
}

// LowStock lists active stocked products at or below their reorder level
func (h *ProductHandler) LowStock(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	products, err := h.productService.LowStock(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Low stock products retrieved successfully", products)
}

// Create handles creating a product
// @Summary Create product
// @Tags products
// @Accept json
// @Param request body service.ProductInput true "Product"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), a, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created successfully", product)
}

// Get handles getting a product by ID
func (h *ProductHandler) Get(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", product)
}

// Update handles updating a product
func (h *ProductHandler) Update(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product updated successfully", product)
}

// Delete deactivates a product. Sales history keeps referencing it.
func (h *ProductHandler) Delete(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.DeactivateProduct(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product deactivated successfully", product)
}

// UpdateStock records a manual stock movement
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateStockInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.productService.UpdateStock(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock updated successfully", result)
}

// Movements pages through the product's stock ledger, newest first
func (h *ProductHandler) Movements(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q request.MovementQuery
	if !bindQuery(c, &q) {
		return
	}
	filter, params, err := q.Filter(h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.productService.Movements(c.Request.Context(), a, id, filter, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock movements retrieved successfully", result)
}
