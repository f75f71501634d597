// Package sale implements the sale document lifecycle: a draft with
// lines, validation that consumes stock and issues the invoice,
// delivery, and cancellation that restores stock.
package sale

import (
	"context"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/allocation"
)

// Status is the sale document state.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusValidated Status = "Validated"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// transitions is the legal state machine. Delivered and Cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusValidated, StatusCancelled},
	StatusValidated: {StatusDelivered, StatusCancelled},
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

// Line is one product position on a sale.
type Line struct {
	ID        id.ID       `json:"id" db:"id"`
	SaleID    id.ID       `json:"saleId" db:"sale_id"`
	ProductID id.ID       `json:"productId" db:"product_id"`
	Quantity  int64       `json:"quantity" db:"quantity"`
	UnitPrice types.Money `json:"unitPrice" db:"unit_price"`

	// Allocations records which lots the line consumed, filled at
	// validation and consulted at cancellation.
	Allocations []allocation.Allocation `json:"allocations,omitempty" db:"-"`
}

// Subtotal is quantity times unit price.
func (ln *Line) Subtotal() types.Money {
	return ln.UnitPrice.Mul(types.NewMoneyFromInt(ln.Quantity))
}

// Sale is a customer sale document.
type Sale struct {
	entity.Document

	CustomerName string      `json:"customerName" db:"customer_name"`
	Status       Status      `json:"status" db:"status"`
	Discount     types.Money `json:"discount" db:"discount"`
	TotalPreTax  types.Money `json:"totalPreTax" db:"total_pre_tax"`
	TotalWithTax types.Money `json:"totalWithTax" db:"total_with_tax"`

	Lines []*Line `json:"lines" db:"-"`
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if s.CustomerName == "" {
		return apperror.NewValidation("customer name is required").WithDetail("field", "customerName")
	}
	if s.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").WithDetail("field", "discount")
	}
	if len(s.Lines) == 0 {
		return apperror.NewValidation("sale requires at least one line")
	}
	for i, ln := range s.Lines {
		if ln.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", i)
		}
		if ln.UnitPrice.IsNegative() {
			return apperror.NewValidation("line unit price must not be negative").WithDetail("line", i)
		}
	}
	return nil
}

// Recalculate derives the totals from the lines: the pre-tax total is
// the line subtotal sum minus the discount, the gross total applies
// the fixed VAT rate on top.
func (s *Sale) Recalculate() {
	sum := types.Zero()
	for _, ln := range s.Lines {
		sum = sum.Add(ln.Subtotal())
	}
	s.TotalPreTax = sum.Sub(s.Discount)
	s.TotalWithTax = types.WithVAT(s.TotalPreTax)
}
