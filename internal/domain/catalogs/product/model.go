// Package product provides the Product catalog.
package product

import (
	"context"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/types"
)

// Product represents a sellable good.
type Product struct {
	entity.Catalog

	// Description is free-form text
	Description *string `db:"description" json:"description,omitempty"`

	// PurchasePrice is the cost of acquiring one unit
	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`

	// SalePrice is the default selling price of one unit
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	// ReorderThreshold triggers low-stock alerts when availability
	// drops below it
	ReorderThreshold int64 `db:"reorder_threshold" json:"reorderThreshold"`

	// Perishable products carry expiry dates on their lots
	Perishable bool `db:"perishable" json:"perishable"`
}

// New creates a new Product.
func New(code, name string, now time.Time) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name, now),
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.PurchasePrice.IsNegative() {
		return apperror.NewValidation("purchase price cannot be negative").
			WithDetail("field", "purchasePrice")
	}

	if p.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").
			WithDetail("field", "salePrice")
	}

	if p.ReorderThreshold < 0 {
		return apperror.NewValidation("reorder threshold cannot be negative").
			WithDetail("field", "reorderThreshold")
	}

	return nil
}

// Margin returns sale price minus purchase price per unit.
func (p *Product) Margin() types.Money {
	return p.SalePrice.Sub(p.PurchasePrice)
}
