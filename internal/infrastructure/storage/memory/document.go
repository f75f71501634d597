package memory

import (
	"context"
	"sort"
	"sync"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/allocation"
	"comptoir/internal/domain/documents/purchase"
	"comptoir/internal/domain/documents/sale"
)

// SaleRepository is an in-process sale store.
type SaleRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*sale.Sale
}

// NewSaleRepository creates an empty sale repository.
func NewSaleRepository() *SaleRepository {
	return &SaleRepository{items: make(map[id.ID]*sale.Sale)}
}

func cloneSale(s *sale.Sale) *sale.Sale {
	cp := *s
	cp.Lines = make([]*sale.Line, len(s.Lines))
	for i, ln := range s.Lines {
		lcp := *ln
		lcp.Allocations = append([]allocation.Allocation(nil), ln.Allocations...)
		cp.Lines[i] = &lcp
	}
	return &cp
}

func (r *SaleRepository) Create(_ context.Context, s *sale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[s.ID] = cloneSale(s)
	return nil
}

func (r *SaleRepository) GetByID(_ context.Context, saleID id.ID) (*sale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return cloneSale(s), nil
}

// GetForUpdate behaves like GetByID; the transaction manager's global
// lock stands in for the row lock.
func (r *SaleRepository) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *SaleRepository) Update(_ context.Context, s *sale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[s.ID]; !ok {
		return apperror.NewNotFound("sale", s.ID)
	}
	r.items[s.ID] = cloneSale(s)
	return nil
}

func (r *SaleRepository) List(_ context.Context, filter sale.Filter) ([]*sale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*sale.Sale
	for _, s := range r.items {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.CustomerName != "" && s.CustomerName != filter.CustomerName {
			continue
		}
		result = append(result, cloneSale(s))
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

// PurchaseRepository is an in-process purchase order store.
type PurchaseRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*purchase.Order
}

// NewPurchaseRepository creates an empty purchase order repository.
func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{items: make(map[id.ID]*purchase.Order)}
}

func cloneOrder(o *purchase.Order) *purchase.Order {
	cp := *o
	cp.Lines = make([]*purchase.Line, len(o.Lines))
	for i, ln := range o.Lines {
		lcp := *ln
		cp.Lines[i] = &lcp
	}
	return &cp
}

func (r *PurchaseRepository) Create(_ context.Context, o *purchase.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[o.ID] = cloneOrder(o)
	return nil
}

func (r *PurchaseRepository) GetByID(_ context.Context, orderID id.ID) (*purchase.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.items[orderID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", orderID)
	}
	return cloneOrder(o), nil
}

// GetForUpdate behaves like GetByID; the transaction manager's global
// lock stands in for the row lock.
func (r *PurchaseRepository) GetForUpdate(ctx context.Context, orderID id.ID) (*purchase.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *PurchaseRepository) Update(_ context.Context, o *purchase.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[o.ID]; !ok {
		return apperror.NewNotFound("purchase order", o.ID)
	}
	r.items[o.ID] = cloneOrder(o)
	return nil
}

func (r *PurchaseRepository) List(_ context.Context, filter purchase.Filter) ([]*purchase.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*purchase.Order
	for _, o := range r.items {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.SupplierName != "" && o.SupplierName != filter.SupplierName {
			continue
		}
		result = append(result, cloneOrder(o))
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
