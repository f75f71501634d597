package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/requests"
	"comptoir/internal/infrastructure/http/v1/dto"
)

// RequestHandler handles replenishment request endpoints.
type RequestHandler struct {
	*BaseHandler
	service *requests.Service
}

// NewRequestHandler creates a replenishment request handler.
func NewRequestHandler(base *BaseHandler, service *requests.Service) *RequestHandler {
	return &RequestHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/replenishment-requests.
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateReplenishmentRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := requests.CreateInput{
		Reason:   req.Reason,
		Priority: requests.Priority(req.Priority),
		Comment:  req.Comment,
	}
	for _, ln := range req.Lines {
		productID, err := id.Parse(ln.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format").WithDetail("value", ln.ProductID))
			return
		}
		in.Lines = append(in.Lines, requests.LineInput{
			ProductID:     productID,
			Quantity:      ln.Quantity,
			Justification: ln.Justification,
		})
	}

	request, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, request.ID.String())
}

// Get handles GET /documents/replenishment-requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	requestID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := h.service.GetByID(c.Request.Context(), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, request)
}

// Submit handles POST /documents/replenishment-requests/:id/submit.
func (h *RequestHandler) Submit(c *gin.Context) {
	h.step(c, h.service.Submit)
}

// Take handles POST /documents/replenishment-requests/:id/take.
func (h *RequestHandler) Take(c *gin.Context) {
	h.step(c, h.service.Take)
}

// Process handles POST /documents/replenishment-requests/:id/process.
func (h *RequestHandler) Process(c *gin.Context) {
	h.noted(c, h.service.Process)
}

// Reject handles POST /documents/replenishment-requests/:id/reject.
func (h *RequestHandler) Reject(c *gin.Context) {
	h.noted(c, h.service.Reject)
}

// Cancel handles POST /documents/replenishment-requests/:id/cancel.
func (h *RequestHandler) Cancel(c *gin.Context) {
	h.step(c, h.service.Cancel)
}

// List handles GET /documents/replenishment-requests.
func (h *RequestHandler) List(c *gin.Context) {
	filter := requests.Filter{
		Status:   requests.Status(c.Query("status")),
		Priority: requests.Priority(c.Query("priority")),
		Limit:    h.ParseIntQuery(c, "limit", 100),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

func (h *RequestHandler) step(c *gin.Context, fn func(ctx context.Context, requestID id.ID) (*requests.Request, error)) {
	requestID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := fn(c.Request.Context(), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, request)
}

func (h *RequestHandler) noted(c *gin.Context, fn func(ctx context.Context, requestID id.ID, note string) (*requests.Request, error)) {
	requestID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	// The note body is optional; rejection without a note is refused
	// by the service.
	var req dto.ReplenishmentNoteRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	request, err := fn(c.Request.Context(), requestID, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, request)
}
