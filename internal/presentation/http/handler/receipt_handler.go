package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
)

// ReceiptHandler renders, prints and emails sale receipts
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

func (h *ReceiptHandler) Get(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receiptService.GenerateReceipt(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt generated successfully", receipt)
}

func (h *ReceiptHandler) PDF(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.receiptService.ReceiptPDF(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.PDF(c, "receipt-"+id.String()+".pdf", doc)
}

// Print sends the receipt to the thermal printer. A printer failure is
// reported in the result with printed=false.
func (h *ReceiptHandler) Print(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.receiptService.PrintReceipt(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result.Message, result)
}

// Email mails the receipt to the sale's customer or to the given address
func (h *ReceiptHandler) Email(c *gin.Context) {
	a, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.EmailReceiptInput
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.receiptService.EmailReceipt(c.Request.Context(), a, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result.Message, result)
}
