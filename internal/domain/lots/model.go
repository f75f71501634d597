// Package lots provides the stock lot store.
// A lot is a quantity of one product received at one time in one
// warehouse, tracked separately for FIFO allocation and expiry.
package lots

import (
	"time"

	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
)

// Status of a stock lot.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusReserved  Status = "Reserved"
	StatusExpired   Status = "Expired"
	StatusDamaged   Status = "Damaged"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusExpired, StatusDamaged:
		return true
	}
	return false
}

// Lot represents a stock lot.
// Quantity never goes negative; it is mutated only through the
// store's adjustment operations.
type Lot struct {
	entity.BaseEntity

	ProductID   id.ID `db:"product_id" json:"productId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	Quantity int64 `db:"quantity" json:"quantity"`

	// Location is the position inside the warehouse (e.g. "Zone-A")
	Location string `db:"location" json:"location,omitempty"`

	// EntryDate orders lots for FIFO allocation
	EntryDate time.Time `db:"entry_date" json:"entryDate"`

	// BatchNumber is generated when not supplied by the caller
	BatchNumber string `db:"batch_number" json:"batchNumber"`

	// ExpiryDate is set for perishable products only
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	Status Status `db:"status" json:"status"`
}

// IsExpired reports whether the lot's expiry date has passed.
func (l *Lot) IsExpired(now time.Time) bool {
	return l.ExpiryDate != nil && now.After(*l.ExpiryDate)
}

// ExpiresBy reports whether the lot expires on or before the deadline
// (and has not expired yet).
func (l *Lot) ExpiresBy(now, deadline time.Time) bool {
	if l.ExpiryDate == nil || l.IsExpired(now) {
		return false
	}
	return !l.ExpiryDate.After(deadline)
}

// DaysUntilExpiry returns whole days left before expiry.
// Zero when no expiry date is set.
func (l *Lot) DaysUntilExpiry(now time.Time) int {
	if l.ExpiryDate == nil {
		return 0
	}
	return int(l.ExpiryDate.Sub(now).Hours() / 24)
}
