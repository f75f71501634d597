package alerts

import (
	"context"

	"comptoir/internal/core/id"
)

// Repository defines operations for alert persistence.
type Repository interface {
	Create(ctx context.Context, a *Alert) error

	// ExistsUnread reports whether an identical unread alert exists.
	ExistsUnread(ctx context.Context, alertType Type, productID id.ID, message string) (bool, error)

	List(ctx context.Context, filter Filter) ([]Alert, error)
	MarkRead(ctx context.Context, alertID id.ID) error
}

// Filter narrows alert listings.
type Filter struct {
	Type       *Type
	ProductID  *id.ID
	UnreadOnly bool
	Limit      int
}
