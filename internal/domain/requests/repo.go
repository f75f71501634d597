package requests

import (
	"context"

	"comptoir/internal/core/id"
)

// Repository defines operations for replenishment request persistence.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, requestID id.ID) (*Request, error)
	// GetForUpdate locks the request row so concurrent workflow steps
	// on the same request serialize.
	GetForUpdate(ctx context.Context, requestID id.ID) (*Request, error)
	Update(ctx context.Context, r *Request) error
	List(ctx context.Context, filter Filter) ([]*Request, error)
}

// Filter narrows request listings.
type Filter struct {
	Status   Status
	Priority Priority
	Limit    int
	Offset   int
}
