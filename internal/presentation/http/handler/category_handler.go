package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) List(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var q request.CategoryQuery
	if !bindQuery(c, &q) {
		return
	}

	categories, err := h.categoryService.ListCategories(c.Request.Context(), a, q.IncludeProducts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Categories retrieved successfully", categories)
}

func (h *CategoryHandler) Tree(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	tree, err := h.categoryService.CategoryTree(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category tree retrieved successfully", tree)
}

// Path returns the ancestors of a category, root first
func (h *CategoryHandler) Path(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	path, err := h.categoryService.CategoryPath(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category path retrieved successfully", path)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), a, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Category created successfully", category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category updated successfully", category)
}

// Move re-parents a category; a null parent_id makes it a root
func (h *CategoryHandler) Move(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.MoveCategoryInput
	if !bindOptionalJSON(c, &req) {
		return
	}

	category, err := h.categoryService.MoveCategory(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category moved successfully", category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), a, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Category deleted successfully", nil)
}
