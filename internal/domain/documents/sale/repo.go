package sale

import (
	"context"

	"comptoir/internal/core/id"
)

// Filter narrows sale listings.
type Filter struct {
	Status       Status
	CustomerName string
	Limit        int
	Offset       int
}

// Repository persists sales with their lines and lot allocations.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	// GetForUpdate locks the sale row so concurrent lifecycle
	// operations on the same document serialize.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)
	Update(ctx context.Context, s *Sale) error
	List(ctx context.Context, filter Filter) ([]*Sale, error)
}
