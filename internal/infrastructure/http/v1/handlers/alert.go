package handlers

import (
	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/alerts"
)

// AlertHandler handles stock alert endpoints.
type AlertHandler struct {
	*BaseHandler
	service *alerts.Service
}

// NewAlertHandler creates an alert handler.
func NewAlertHandler(base *BaseHandler, service *alerts.Service) *AlertHandler {
	return &AlertHandler{BaseHandler: base, service: service}
}

// List handles GET /alerts.
func (h *AlertHandler) List(c *gin.Context) {
	filter := alerts.Filter{
		UnreadOnly: c.Query("unread") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 100),
	}

	if v := c.Query("type"); v != "" {
		alertType := alerts.Type(v)
		if !alertType.IsValid() {
			h.Error(c, apperror.NewValidation("invalid alert type").WithDetail("value", v))
			return
		}
		filter.Type = &alertType
	}
	if v := c.Query("productId"); v != "" {
		parsed, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &parsed
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// MarkRead handles POST /alerts/:id/read.
func (h *AlertHandler) MarkRead(c *gin.Context) {
	alertID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), alertID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
