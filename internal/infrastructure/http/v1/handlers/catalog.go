package handlers

import (
	"github.com/gin-gonic/gin"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/types"
	"comptoir/internal/domain"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
	clock   clock.Clock
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, clk clock.Clock) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service, clock: clk}
}

// Create handles POST /catalogs/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	purchasePrice, err := types.NewMoneyFromString(req.PurchasePrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid purchasePrice").WithDetail("value", req.PurchasePrice))
		return
	}
	salePrice, err := types.NewMoneyFromString(req.SalePrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid salePrice").WithDetail("value", req.SalePrice))
		return
	}

	p := product.New("", req.Name, h.clock.Now())
	p.Description = req.Description
	p.PurchasePrice = purchasePrice
	p.SalePrice = salePrice
	p.ReorderThreshold = req.ReorderThreshold
	p.Perishable = req.Perishable

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// Get handles GET /catalogs/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update handles PUT /catalogs/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.PurchasePrice != nil {
		price, err := types.NewMoneyFromString(*req.PurchasePrice)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid purchasePrice").WithDetail("value", *req.PurchasePrice))
			return
		}
		p.PurchasePrice = price
	}
	if req.SalePrice != nil {
		price, err := types.NewMoneyFromString(*req.SalePrice)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid salePrice").WithDetail("value", *req.SalePrice))
			return
		}
		p.SalePrice = price
	}
	if req.ReorderThreshold != nil {
		p.ReorderThreshold = *req.ReorderThreshold
	}
	if req.Perishable != nil {
		p.Perishable = *req.Perishable
	}

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// List handles GET /catalogs/products.
func (h *ProductHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	result, err := h.service.List(c.Request.Context(), domain.ListFilter{
		Search: c.Query("search"),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
	})
}

// WarehouseHandler handles warehouse catalog endpoints.
type WarehouseHandler struct {
	*BaseHandler
	service *warehouse.Service
	clock   clock.Clock
}

// NewWarehouseHandler creates a warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service, clk clock.Clock) *WarehouseHandler {
	return &WarehouseHandler{BaseHandler: base, service: service, clock: clk}
}

// Create handles POST /catalogs/warehouses.
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w := warehouse.New("", req.Name, h.clock.Now())
	w.Address = req.Address
	w.Capacity = req.Capacity
	w.IsReturns = req.IsReturns

	if err := h.service.Create(c.Request.Context(), w); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, w.ID.String())
}

// Get handles GET /catalogs/warehouses/:id.
func (h *WarehouseHandler) Get(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	w, err := h.service.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// Update handles PUT /catalogs/warehouses/:id.
func (h *WarehouseHandler) Update(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w, err := h.service.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Name != nil {
		w.Name = *req.Name
	}
	if req.Address != nil {
		w.Address = req.Address
	}
	if req.Capacity != nil {
		w.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}

	if err := h.service.Update(c.Request.Context(), w); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, w)
}

// List handles GET /catalogs/warehouses.
func (h *WarehouseHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	result, err := h.service.List(c.Request.Context(), domain.ListFilter{
		Search: c.Query("search"),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
	})
}
