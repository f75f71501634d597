// Package warehouse provides the Warehouse catalog.
// Warehouses represent physical locations for storing stock lots.
package warehouse

import (
	"context"
	"time"

	"comptoir/internal/core/entity"
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.Catalog

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Capacity is the maximum total lot quantity the warehouse holds.
	// Zero or negative means unlimited.
	Capacity int64 `db:"capacity" json:"capacity"`

	// IsReturns marks the returns bin that receives released stock
	// when no lot is left to credit
	IsReturns bool `db:"is_returns" json:"isReturns"`

	// IsActive indicates if warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates a new Warehouse.
func New(code, name string, now time.Time) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name, now),
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}

// HasCapacityLimit reports whether the warehouse enforces a capacity.
func (w *Warehouse) HasCapacityLimit() bool {
	return w.Capacity > 0
}

// Free returns the remaining capacity given the current occupancy.
// Only meaningful when HasCapacityLimit.
func (w *Warehouse) Free(occupied int64) int64 {
	free := w.Capacity - occupied
	if free < 0 {
		return 0
	}
	return free
}

// CanAcceptStock returns true if warehouse can accept stock.
func (w *Warehouse) CanAcceptStock() bool {
	return w.IsActive
}

var _ entity.Validatable = (*Warehouse)(nil)
