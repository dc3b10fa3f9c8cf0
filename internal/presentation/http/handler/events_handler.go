package handler

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/infrastructure/realtime"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// EventsHandler upgrades clients to the live event stream of their business
type EventsHandler struct {
	hub *realtime.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Subscribe handles the websocket upgrade. The upgrader writes its own
// error response on a failed handshake.
func (h *EventsHandler) Subscribe(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.hub.ServeWS(c.Writer, c.Request, a.BusinessID, a.UserID); err != nil {
		log.Printf("[%s] websocket upgrade failed: %v", response.RequestID(c), err)
	}
}
