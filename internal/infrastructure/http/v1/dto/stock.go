package dto

import "time"

// CreateLotRequest is the payload for a stock entry.
type CreateLotRequest struct {
	ProductID   string     `json:"productId" binding:"required"`
	WarehouseID string     `json:"warehouseId" binding:"required"`
	Quantity    int64      `json:"quantity" binding:"required,gt=0"`
	Location    string     `json:"location"`
	BatchNumber string     `json:"batchNumber"`
	ExpiryDate  *time.Time `json:"expiryDate"`
}

// AdjustQuantityRequest is the payload for a lot quantity adjustment.
// Delta may be negative.
type AdjustQuantityRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}
