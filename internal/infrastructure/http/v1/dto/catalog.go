package dto

// CreateProductRequest is the payload for product creation.
type CreateProductRequest struct {
	Name             string  `json:"name" binding:"required"`
	Description      *string `json:"description"`
	PurchasePrice    string  `json:"purchasePrice" binding:"required"`
	SalePrice        string  `json:"salePrice" binding:"required"`
	ReorderThreshold int64   `json:"reorderThreshold" binding:"omitempty,min=0"`
	Perishable       bool    `json:"perishable"`
}

// UpdateProductRequest is the payload for product updates. Nil fields
// are left unchanged.
type UpdateProductRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	PurchasePrice    *string `json:"purchasePrice"`
	SalePrice        *string `json:"salePrice"`
	ReorderThreshold *int64  `json:"reorderThreshold"`
	Perishable       *bool   `json:"perishable"`
}

// CreateWarehouseRequest is the payload for warehouse creation.
type CreateWarehouseRequest struct {
	Name      string  `json:"name" binding:"required"`
	Address   *string `json:"address"`
	Capacity  int64   `json:"capacity" binding:"omitempty,min=0"`
	IsReturns bool    `json:"isReturns"`
}

// UpdateWarehouseRequest is the payload for warehouse updates.
type UpdateWarehouseRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Capacity *int64  `json:"capacity"`
	IsActive *bool   `json:"isActive"`
}
