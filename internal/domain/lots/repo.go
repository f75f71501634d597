package lots

import (
	"context"
	"time"

	"comptoir/internal/core/id"
)

// Repository defines operations for lot persistence.
//
// The ForUpdate variants acquire row locks and must be called inside a
// transaction; they are the backbone of the negative-stock prevention
// discipline.
type Repository interface {
	Create(ctx context.Context, lot *Lot) error
	GetByID(ctx context.Context, lotID id.ID) (*Lot, error)

	// GetForUpdate retrieves a lot with a row lock.
	GetForUpdate(ctx context.Context, lotID id.ID) (*Lot, error)

	Update(ctx context.Context, lot *Lot) error

	// Delete removes a lot. The store guards against deleting
	// available lots that still hold quantity.
	Delete(ctx context.Context, lotID id.ID) error

	// ListAvailableForUpdate returns Available lots with quantity > 0
	// for a product, ordered by entry date ascending then id ascending,
	// all rows locked. This is the allocation order.
	ListAvailableForUpdate(ctx context.Context, productID id.ID) ([]*Lot, error)

	// NewestAvailableForUpdate returns the most recently entered
	// Available lot for a product with a row lock, or nil when the
	// product has no Available lot at all.
	NewestAvailableForUpdate(ctx context.Context, productID id.ID) (*Lot, error)

	// TotalAvailable sums quantity over Available lots of a product.
	TotalAvailable(ctx context.Context, productID id.ID) (int64, error)

	// SumQuantities sums all lot quantities in a warehouse
	// (any status), for the capacity check.
	SumQuantities(ctx context.Context, warehouseID id.ID) (int64, error)

	// ListExpired returns lots whose expiry date has passed but whose
	// status is not Expired yet.
	ListExpired(ctx context.Context, now time.Time) ([]*Lot, error)

	// ListExpiringBetween returns not-yet-expired lots whose expiry
	// date falls within [from, to] (inclusive).
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*Lot, error)

	List(ctx context.Context, filter Filter) ([]*Lot, error)
}

// Filter narrows lot listings.
type Filter struct {
	ProductID   *id.ID
	WarehouseID *id.ID
	Status      *Status
	Limit       int
	Offset      int
}
