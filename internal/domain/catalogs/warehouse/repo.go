package warehouse

import (
	"context"

	"comptoir/internal/core/id"
	"comptoir/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	Create(ctx context.Context, w *Warehouse) error
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	GetByCode(ctx context.Context, code string) (*Warehouse, error)

	// GetForUpdate retrieves warehouse with row lock. The capacity
	// check-then-insert sequence in the lot store serializes on it.
	GetForUpdate(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// GetReturns retrieves the returns location.
	GetReturns(ctx context.Context) (*Warehouse, error)

	Update(ctx context.Context, w *Warehouse) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Warehouse], error)
}
