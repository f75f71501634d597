// Package billing holds the invoice and payment ledger. Invoices are
// issued by the sale and purchase lifecycles; payments are immutable
// ledger entries that drive the invoice status.
package billing

import (
	"context"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
	"comptoir/internal/core/types"
)

// InvoiceKind distinguishes receivables from payables.
type InvoiceKind string

const (
	KindCustomer InvoiceKind = "customer"
	KindSupplier InvoiceKind = "supplier"
)

// InvoiceStatus is derived purely from recorded payments, never set
// directly, except for Cancelled.
type InvoiceStatus string

const (
	StatusUnpaid        InvoiceStatus = "Unpaid"
	StatusPartiallyPaid InvoiceStatus = "PartiallyPaid"
	StatusPaid          InvoiceStatus = "Paid"
	StatusCancelled     InvoiceStatus = "Cancelled"
)

// PaymentMethod enumerates accepted payment instruments.
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "Cash"
	MethodCheque      PaymentMethod = "Cheque"
	MethodTransfer    PaymentMethod = "Transfer"
	MethodMobileMoney PaymentMethod = "MobileMoney"
	MethodCard        PaymentMethod = "Card"
)

// IsValid reports whether the payment method is known.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCheque, MethodTransfer, MethodMobileMoney, MethodCard:
		return true
	}
	return false
}

// Invoice is a receivable (customer) or payable (supplier) document.
// Exactly one of SaleID / PurchaseOrderID is set, matching Kind.
type Invoice struct {
	entity.BaseEntity

	Number          string        `json:"number" db:"number"`
	Kind            InvoiceKind   `json:"kind" db:"kind"`
	SaleID          *id.ID        `json:"saleId,omitempty" db:"sale_id"`
	PurchaseOrderID *id.ID        `json:"purchaseOrderId,omitempty" db:"purchase_order_id"`
	Total           types.Money   `json:"total" db:"total"`
	Status          InvoiceStatus `json:"status" db:"status"`
	IssueDate       time.Time     `json:"issueDate" db:"issue_date"`
	DueDate         time.Time     `json:"dueDate" db:"due_date"`
}

// Validate implements entity.Validatable.
func (i *Invoice) Validate(_ context.Context) error {
	if i.Kind != KindCustomer && i.Kind != KindSupplier {
		return apperror.NewValidation("invalid invoice kind").WithDetail("kind", string(i.Kind))
	}
	if i.Kind == KindCustomer && i.SaleID == nil {
		return apperror.NewValidation("customer invoice requires a sale reference")
	}
	if i.Kind == KindSupplier && i.PurchaseOrderID == nil {
		return apperror.NewValidation("supplier invoice requires a purchase order reference")
	}
	if i.Total.IsNegative() {
		return apperror.NewValidation("invoice total must not be negative")
	}
	return nil
}

// IsOverdue reports whether the invoice is past due and not settled.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status == StatusPaid || i.Status == StatusCancelled {
		return false
	}
	return now.After(i.DueDate)
}

// Payment is an immutable ledger entry against an invoice. Amounts are
// stored rounded to the cent; entries are never updated or deleted.
type Payment struct {
	ID        id.ID         `json:"id" db:"id"`
	InvoiceID id.ID         `json:"invoiceId" db:"invoice_id"`
	Amount    types.Money   `json:"amount" db:"amount"`
	Method    PaymentMethod `json:"method" db:"method"`
	Reference string        `json:"reference,omitempty" db:"reference"`
	PaidAt    time.Time     `json:"paidAt" db:"paid_at"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// Remaining is the open balance on an invoice: the rounded total minus
// the rounded payment sum.
func Remaining(total types.Money, payments []*Payment) types.Money {
	paid := types.Zero()
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return types.Round2(total).Sub(types.Round2(paid))
}

// StatusFor derives the invoice status from its payment sum. Both the
// total and the sum are rounded to two decimals before comparison, and
// a residual below one cent counts as settled.
func StatusFor(total types.Money, payments []*Payment) InvoiceStatus {
	paid := types.Zero()
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	paid = types.Round2(paid)

	remaining := types.Round2(total).Sub(paid)
	switch {
	case remaining.Abs().LessThan(types.Cent):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartiallyPaid
	default:
		return StatusUnpaid
	}
}
