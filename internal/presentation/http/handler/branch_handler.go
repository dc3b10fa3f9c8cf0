package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// BranchHandler handles branch-related HTTP requests
type BranchHandler struct {
	branchService *service.BranchService
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(branchService *service.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

// List handles listing branches
func (h *BranchHandler) List(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var q request.BranchQuery
	if !bindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.branchService.ListBranches(c.Request.Context(), a, filter, q.Params())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "Branches retrieved successfully", "branches", result)
}

// Create handles creating a branch
func (h *BranchHandler) Create(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.BranchInput
	if !bindJSON(c, &req) {
		return
	}

	branch, err := h.branchService.CreateBranch(c.Request.Context(), a, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Branch created successfully", branch)
}

// Get handles getting a branch with its users and open session
func (h *BranchHandler) Get(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.branchService.GetBranchDetails(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Branch retrieved successfully", details)
}

// Update handles updating a branch
func (h *BranchHandler) Update(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.BranchInput
	if !bindJSON(c, &req) {
		return
	}

	branch, err := h.branchService.UpdateBranch(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Branch updated successfully", branch)
}

// Summary handles the branch sales summary
func (h *BranchHandler) Summary(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.branchService.BranchSummary(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Branch summary retrieved successfully", summary)
}

// Deactivate handles deactivating a branch. Branches with open sessions stay active.
func (h *BranchHandler) Deactivate(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	branch, err := h.branchService.DeactivateBranch(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Branch deactivated successfully", branch)
}
