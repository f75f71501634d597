// Package purchase implements the purchase order lifecycle: a draft
// with lines, validation, reception that books stock lots and issues
// the supplier invoice, and cancellation.
package purchase

import (
	"context"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
	"comptoir/internal/core/types"
)

// Status is the purchase order state.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusValidated Status = "Validated"
	StatusReceived  Status = "Received"
	StatusCancelled Status = "Cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusValidated, StatusCancelled},
	StatusValidated: {StatusReceived, StatusCancelled},
}

// CanTransition reports whether moving from s to target is legal.
func (s Status) CanTransition(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Line is one ordered product position.
type Line struct {
	ID        id.ID       `json:"id" db:"id"`
	OrderID   id.ID       `json:"orderId" db:"order_id"`
	ProductID id.ID       `json:"productId" db:"product_id"`
	Quantity  int64       `json:"quantity" db:"quantity"`
	UnitCost  types.Money `json:"unitCost" db:"unit_cost"`

	// ExpiryDate carries over to the lot booked at reception.
	ExpiryDate *time.Time `json:"expiryDate,omitempty" db:"expiry_date"`
}

// Subtotal is quantity times unit cost.
func (ln *Line) Subtotal() types.Money {
	return ln.UnitCost.Mul(types.NewMoneyFromInt(ln.Quantity))
}

// Order is a purchase order placed with a supplier.
type Order struct {
	entity.Document

	SupplierName string      `json:"supplierName" db:"supplier_name"`
	Status       Status      `json:"status" db:"status"`
	Total        types.Money `json:"total" db:"total"`

	// ExpectedDate is the delivery date agreed with the supplier,
	// informational only.
	ExpectedDate *time.Time `json:"expectedDate,omitempty" db:"expected_date"`

	Lines []*Line `json:"lines" db:"-"`
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if o.SupplierName == "" {
		return apperror.NewValidation("supplier name is required").WithDetail("field", "supplierName")
	}
	if len(o.Lines) == 0 {
		return apperror.NewValidation("purchase order requires at least one line")
	}
	for i, ln := range o.Lines {
		if ln.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", i)
		}
		if ln.UnitCost.IsNegative() {
			return apperror.NewValidation("line unit cost must not be negative").WithDetail("line", i)
		}
	}
	return nil
}

// Recalculate derives the order total from the lines.
func (o *Order) Recalculate() {
	sum := types.Zero()
	for _, ln := range o.Lines {
		sum = sum.Add(ln.Subtotal())
	}
	o.Total = sum
}
