package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/billing"
)

// InvoiceRepository is an in-process invoice store.
type InvoiceRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*billing.Invoice
}

// NewInvoiceRepository creates an empty invoice repository.
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{items: make(map[id.ID]*billing.Invoice)}
}

func (r *InvoiceRepository) Create(_ context.Context, inv *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *inv
	r.items[inv.ID] = &cp
	return nil
}

func (r *InvoiceRepository) GetByID(_ context.Context, invoiceID id.ID) (*billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.items[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	cp := *inv
	return &cp, nil
}

// GetForUpdate behaves like GetByID; the transaction manager's global
// lock stands in for the row lock.
func (r *InvoiceRepository) GetForUpdate(ctx context.Context, invoiceID id.ID) (*billing.Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *InvoiceRepository) GetBySaleID(_ context.Context, saleID id.ID) (*billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.items {
		if inv.SaleID != nil && *inv.SaleID == saleID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", saleID)
}

func (r *InvoiceRepository) Update(_ context.Context, inv *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[inv.ID]; !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	cp := *inv
	r.items[inv.ID] = &cp
	return nil
}

func (r *InvoiceRepository) List(_ context.Context, filter billing.InvoiceFilter) ([]*billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*billing.Invoice
	for _, inv := range r.items {
		if filter.Kind != "" && inv.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		cp := *inv
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })

	if filter.Offset > len(result) {
		filter.Offset = len(result)
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *InvoiceRepository) ListUnsettled(_ context.Context, kind billing.InvoiceKind) ([]*billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*billing.Invoice
	for _, inv := range r.items {
		if inv.Kind != kind {
			continue
		}
		if inv.Status == billing.StatusPaid || inv.Status == billing.StatusCancelled {
			continue
		}
		cp := *inv
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

// PaymentRepository is an in-process, append-only payment store.
type PaymentRepository struct {
	mu    sync.RWMutex
	items []*billing.Payment
}

// NewPaymentRepository creates an empty payment repository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) Create(_ context.Context, p *billing.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.items = append(r.items, &cp)
	return nil
}

func (r *PaymentRepository) ListByInvoice(_ context.Context, invoiceID id.ID) ([]*billing.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*billing.Payment
	for _, p := range r.items {
		if p.InvoiceID == invoiceID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *PaymentRepository) ListBetween(_ context.Context, from, to time.Time) ([]*billing.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*billing.Payment
	for _, p := range r.items {
		if p.PaidAt.Before(from) || p.PaidAt.After(to) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PaidAt.Before(result[j].PaidAt) })
	return result, nil
}
