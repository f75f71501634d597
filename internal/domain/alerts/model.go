// Package alerts provides stock alert events for the alerting collaborator.
package alerts

import (
	"time"

	"comptoir/internal/core/id"
)

// Type classifies an alert. Wire values match the legacy back office
// so downstream consumers keep working.
type Type string

const (
	// TypeStockout - a product has no available stock left
	TypeStockout Type = "Rupture"
	// TypeLowStock - availability dropped below the reorder threshold
	TypeLowStock Type = "StockFaible"
	// TypeExpiry - a lot is expired or about to expire
	TypeExpiry Type = "Peremption"
)

// IsValid reports whether t is a known alert type.
func (t Type) IsValid() bool {
	switch t {
	case TypeStockout, TypeLowStock, TypeExpiry:
		return true
	}
	return false
}

// Alert is an event for the alerting collaborator.
// Identical (Type, ProductID, Message) alerts are not re-emitted
// while an unread one exists.
type Alert struct {
	ID        id.ID     `db:"id" json:"id"`
	Type      Type      `db:"type" json:"type"`
	ProductID id.ID     `db:"product_id" json:"productId"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
