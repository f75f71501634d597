package dto

import "time"

// SaleLineRequest is one requested sale position. UnitPrice falls back
// to the catalog sale price when omitted.
type SaleLineRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Quantity  int64   `json:"quantity" binding:"required,gt=0"`
	UnitPrice *string `json:"unitPrice"`
}

// CreateSaleRequest is the payload for sale creation.
type CreateSaleRequest struct {
	CustomerName string            `json:"customerName" binding:"required"`
	Discount     string            `json:"discount"`
	Comment      string            `json:"comment"`
	Lines        []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseLineRequest is one requested order position.
type PurchaseLineRequest struct {
	ProductID  string     `json:"productId" binding:"required"`
	Quantity   int64      `json:"quantity" binding:"required,gt=0"`
	UnitCost   *string    `json:"unitCost"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

// CreatePurchaseOrderRequest is the payload for purchase order
// creation.
type CreatePurchaseOrderRequest struct {
	SupplierName string                `json:"supplierName" binding:"required"`
	Comment      string                `json:"comment"`
	ExpectedDate *time.Time            `json:"expectedDate"`
	Lines        []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReceivePurchaseOrderRequest names the warehouse receiving the goods.
type ReceivePurchaseOrderRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required"`
}

// ReplenishmentLineRequest is one requested restock position.
type ReplenishmentLineRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	Quantity      int64  `json:"quantity" binding:"required,gt=0"`
	Justification string `json:"justification"`
}

// CreateReplenishmentRequestRequest is the payload for replenishment
// request creation. An empty priority defaults to normal.
type CreateReplenishmentRequestRequest struct {
	Reason   string                     `json:"reason"`
	Priority string                     `json:"priority"`
	Comment  string                     `json:"comment"`
	Lines    []ReplenishmentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReplenishmentNoteRequest carries the note attached when processing
// or rejecting a request.
type ReplenishmentNoteRequest struct {
	Note string `json:"note"`
}
