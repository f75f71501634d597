package billing

import (
	"context"
	"time"

	"comptoir/internal/core/id"
)

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Kind   InvoiceKind
	Status InvoiceStatus
	Limit  int
	Offset int
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	// GetForUpdate locks the invoice row for the duration of the
	// current transaction. Payment recording depends on it.
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetBySaleID(ctx context.Context, saleID id.ID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error)
	// ListUnsettled returns invoices that are neither Paid nor
	// Cancelled, for aging reports.
	ListUnsettled(ctx context.Context, kind InvoiceKind) ([]*Invoice, error)
}

// PaymentRepository persists payments. Entries are append-only.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*Payment, error)
}
