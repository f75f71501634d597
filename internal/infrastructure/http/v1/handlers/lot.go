package handlers

import (
	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/lots"
	"comptoir/internal/infrastructure/http/v1/dto"
)

// LotHandler handles stock lot endpoints.
type LotHandler struct {
	*BaseHandler
	store *lots.Store
}

// NewLotHandler creates a lot handler.
func NewLotHandler(base *BaseHandler, store *lots.Store) *LotHandler {
	return &LotHandler{BaseHandler: base, store: store}
}

// Create handles POST /stock/lots.
func (h *LotHandler) Create(c *gin.Context) {
	var req dto.CreateLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	warehouseID, err := id.Parse(req.WarehouseID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}

	lot, err := h.store.CreateLot(c.Request.Context(), lots.CreateLotInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    req.Quantity,
		Location:    req.Location,
		BatchNumber: req.BatchNumber,
		ExpiryDate:  req.ExpiryDate,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, lot.ID.String())
}

// Get handles GET /stock/lots/:id.
func (h *LotHandler) Get(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	lot, err := h.store.GetByID(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, lot)
}

// Adjust handles POST /stock/lots/:id/adjust.
func (h *LotHandler) Adjust(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lot, err := h.store.AdjustQuantity(c.Request.Context(), lotID, req.Delta)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, lot)
}

// Delete handles DELETE /stock/lots/:id.
func (h *LotHandler) Delete(c *gin.Context) {
	lotID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), lotID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET /stock/lots.
func (h *LotHandler) List(c *gin.Context) {
	filter := lots.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if v := c.Query("productId"); v != "" {
		parsed, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &parsed
	}
	if v := c.Query("warehouseId"); v != "" {
		parsed, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = &parsed
	}
	if v := c.Query("status"); v != "" {
		status := lots.Status(v)
		if !status.IsValid() {
			h.Error(c, apperror.NewValidation("invalid status").WithDetail("value", v))
			return
		}
		filter.Status = &status
	}

	result, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Availability handles GET /stock/availability/:productId.
func (h *LotHandler) Availability(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "productId")
	if !ok {
		return
	}

	total, err := h.store.TotalAvailable(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"productId": productID, "available": total})
}

// CheckExpirations handles POST /stock/expirations/check.
func (h *LotHandler) CheckExpirations(c *gin.Context) {
	horizon := h.ParseIntQuery(c, "horizonDays", 30)

	report, err := h.store.CheckExpirations(c.Request.Context(), horizon)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
