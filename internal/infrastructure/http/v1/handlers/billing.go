package handlers

import (
	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/billing"
	"comptoir/internal/infrastructure/http/v1/dto"
)

// BillingHandler handles invoice and payment endpoints.
type BillingHandler struct {
	*BaseHandler
	ledger *billing.Ledger
}

// NewBillingHandler creates a billing handler.
func NewBillingHandler(base *BaseHandler, ledger *billing.Ledger) *BillingHandler {
	return &BillingHandler{BaseHandler: base, ledger: ledger}
}

// Get handles GET /billing/invoices/:id.
func (h *BillingHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.ledger.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// List handles GET /billing/invoices.
func (h *BillingHandler) List(c *gin.Context) {
	filter := billing.InvoiceFilter{
		Kind:   billing.InvoiceKind(c.Query("kind")),
		Status: billing.InvoiceStatus(c.Query("status")),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	result, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Cancel handles POST /billing/invoices/:id/cancel.
func (h *BillingHandler) Cancel(c *gin.Context) {
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.ledger.Cancel(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// RemainingBalance handles GET /billing/invoices/:id/balance.
func (h *BillingHandler) RemainingBalance(c *gin.Context) {
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	remaining, err := h.ledger.RemainingBalance(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"invoiceId": invoiceID, "remaining": remaining})
}

// Payments handles GET /billing/invoices/:id/payments.
func (h *BillingHandler) Payments(c *gin.Context) {
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.ledger.Payments(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, payments)
}

// RecordPayment handles POST /billing/invoices/:id/payments.
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	invoiceID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	amount, err := types.NewMoneyFromString(req.Amount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("value", req.Amount))
		return
	}

	in := billing.RecordPaymentInput{
		InvoiceID: invoiceID,
		Amount:    amount,
		Method:    billing.PaymentMethod(req.Method),
		Reference: req.Reference,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	payment, err := h.ledger.RecordPayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, payment.ID.String())
}
