package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// RegisterSessionHandler handles cash register sessions
type RegisterSessionHandler struct {
	sessionService *service.RegisterSessionService
	loc            *time.Location
}

// NewRegisterSessionHandler creates a new register session handler
func NewRegisterSessionHandler(sessionService *service.RegisterSessionService, loc *time.Location) *RegisterSessionHandler {
	return &RegisterSessionHandler{sessionService: sessionService, loc: loc}
}

func (h *RegisterSessionHandler) List(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var q request.SessionQuery
	if !bindQuery(c, &q) {
		return
	}
	filter, err := q.Filter(h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.sessionService.ListSessions(c.Request.Context(), a, filter, q.Params())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "Register sessions retrieved successfully", "sessions", result)
}

// Current returns the open session on a branch, defaulting to the caller's
// branch. data is null when the register is closed.
func (h *RegisterSessionHandler) Current(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	branchID, err := request.ParseUUID("branch_id", c.Query("branch_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	session, err := h.sessionService.CurrentSession(c.Request.Context(), a, branchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if session == nil {
		response.OK(c, "No open register session", nil)
		return
	}

	response.OK(c, "Register session retrieved successfully", session)
}

// Open opens a register with its starting float
func (h *RegisterSessionHandler) Open(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.OpenSessionInput
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.OpenSession(c.Request.Context(), a, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Register session opened successfully", session)
}

func (h *RegisterSessionHandler) Get(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Register session retrieved successfully", session)
}

// Report breaks the session's completed sales down by payment method
func (h *RegisterSessionHandler) Report(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.sessionService.GenerateSessionReport(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Register session report generated successfully", report)
}

// Close reconciles counted cash against expected and closes the session
func (h *RegisterSessionHandler) Close(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CloseSessionInput
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.CloseSession(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Register session closed successfully", session)
}
