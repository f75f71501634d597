package handlers

import (
	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/documents/sale"
	"comptoir/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale document endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/sales.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := sale.CreateInput{
		CustomerName: req.CustomerName,
		Discount:     types.Zero(),
		Comment:      req.Comment,
	}
	if req.Discount != "" {
		discount, err := types.NewMoneyFromString(req.Discount)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid discount").WithDetail("value", req.Discount))
			return
		}
		in.Discount = discount
	}

	for _, ln := range req.Lines {
		productID, err := id.Parse(ln.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format").WithDetail("value", ln.ProductID))
			return
		}

		li := sale.LineInput{ProductID: productID, Quantity: ln.Quantity}
		if ln.UnitPrice != nil {
			price, err := types.NewMoneyFromString(*ln.UnitPrice)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid unitPrice").WithDetail("value", *ln.UnitPrice))
				return
			}
			li.UnitPrice = &price
		}
		in.Lines = append(in.Lines, li)
	}

	doc, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc.ID.String())
}

// Get handles GET /documents/sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Validate handles POST /documents/sales/:id/validate.
func (h *SaleHandler) Validate(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Validate(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Deliver handles POST /documents/sales/:id/deliver.
func (h *SaleHandler) Deliver(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.MarkDelivered(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Cancel handles POST /documents/sales/:id/cancel.
func (h *SaleHandler) Cancel(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List handles GET /documents/sales.
func (h *SaleHandler) List(c *gin.Context) {
	filter := sale.Filter{
		Status:       sale.Status(c.Query("status")),
		CustomerName: c.Query("customer"),
		Limit:        h.ParseIntQuery(c, "limit", 100),
		Offset:       h.ParseIntQuery(c, "offset", 0),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
