package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// PrinterHandler handles printer-related HTTP requests.
type PrinterHandler struct {
	printerService *service.PrinterService
}

// NewPrinterHandler creates a new printer handler.
func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// GetStatus returns the current printer connection status.
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	status, err := h.printerService.GetStatus(a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Printer status retrieved", status)
}

// TestPrint sends a test page to the printer. The sample receipt is returned
// even when nothing was printed.
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}

	result, err := h.printerService.TestPrint(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result.Message, result)
}
