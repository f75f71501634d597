package product

import (
	"context"

	"comptoir/internal/core/id"
	"comptoir/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
	Exists(ctx context.Context, productID id.ID) (bool, error)
}
