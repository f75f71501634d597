package handlers

import (
	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/documents/purchase"
	"comptoir/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles purchase order endpoints.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a purchase order handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/purchase-orders.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := purchase.CreateInput{
		SupplierName: req.SupplierName,
		Comment:      req.Comment,
		ExpectedDate: req.ExpectedDate,
	}
	for _, ln := range req.Lines {
		productID, err := id.Parse(ln.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format").WithDetail("value", ln.ProductID))
			return
		}

		li := purchase.LineInput{
			ProductID:  productID,
			Quantity:   ln.Quantity,
			ExpiryDate: ln.ExpiryDate,
		}
		if ln.UnitCost != nil {
			cost, err := types.NewMoneyFromString(*ln.UnitCost)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid unitCost").WithDetail("value", *ln.UnitCost))
				return
			}
			li.UnitCost = &cost
		}
		in.Lines = append(in.Lines, li)
	}

	order, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, order.ID.String())
}

// Get handles GET /documents/purchase-orders/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Validate handles POST /documents/purchase-orders/:id/validate.
func (h *PurchaseHandler) Validate(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Validate(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Receive handles POST /documents/purchase-orders/:id/receive.
func (h *PurchaseHandler) Receive(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReceivePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	warehouseID, err := id.Parse(req.WarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	order, err := h.service.Receive(c.Request.Context(), orderID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Cancel handles POST /documents/purchase-orders/:id/cancel.
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// List handles GET /documents/purchase-orders.
func (h *PurchaseHandler) List(c *gin.Context) {
	filter := purchase.Filter{
		Status:       purchase.Status(c.Query("status")),
		SupplierName: c.Query("supplier"),
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
