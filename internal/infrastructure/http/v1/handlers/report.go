package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/domain/reports"
)

// ReportHandler handles reporting endpoints.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// StockValuation handles GET /reports/stock-valuation.
func (h *ReportHandler) StockValuation(c *gin.Context) {
	report, err := h.service.StockValuation(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// InvoiceAging handles GET /reports/invoice-aging.
func (h *ReportHandler) InvoiceAging(c *gin.Context) {
	var asOf time.Time
	if v := c.Query("asOf"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf, expected RFC 3339"))
			return
		}
		asOf = parsed
	}

	report, err := h.service.InvoiceAging(c.Request.Context(), asOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// CashFlow handles GET /reports/cash-flow.
func (h *ReportHandler) CashFlow(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid from, expected RFC 3339"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid to, expected RFC 3339"))
		return
	}

	report, err := h.service.CashFlow(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Financial handles GET /reports/financial.
func (h *ReportHandler) Financial(c *gin.Context) {
	report, err := h.service.Financial(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
