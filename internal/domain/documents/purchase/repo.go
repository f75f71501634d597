package purchase

import (
	"context"

	"comptoir/internal/core/id"
)

// Filter narrows purchase order listings.
type Filter struct {
	Status       Status
	SupplierName string
	Limit        int
	Offset       int
}

// Repository persists purchase orders with their lines.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	// GetForUpdate locks the order row so reception and cancellation
	// of the same order serialize.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)
	Update(ctx context.Context, o *Order) error
	List(ctx context.Context, filter Filter) ([]*Order, error)
}
