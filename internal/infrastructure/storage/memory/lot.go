package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/lots"
)

// LotRepository is an in-process lot store.
type LotRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*lots.Lot
}

// NewLotRepository creates an empty lot repository.
func NewLotRepository() *LotRepository {
	return &LotRepository{items: make(map[id.ID]*lots.Lot)}
}

func (r *LotRepository) Create(_ context.Context, lot *lots.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *lot
	r.items[lot.ID] = &cp
	return nil
}

func (r *LotRepository) GetByID(_ context.Context, lotID id.ID) (*lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lot, ok := r.items[lotID]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotID)
	}
	cp := *lot
	return &cp, nil
}

// GetForUpdate behaves like GetByID; the transaction manager's global
// lock stands in for the row lock.
func (r *LotRepository) GetForUpdate(ctx context.Context, lotID id.ID) (*lots.Lot, error) {
	return r.GetByID(ctx, lotID)
}

func (r *LotRepository) Update(_ context.Context, lot *lots.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[lot.ID]; !ok {
		return apperror.NewNotFound("lot", lot.ID)
	}
	cp := *lot
	r.items[lot.ID] = &cp
	return nil
}

func (r *LotRepository) Delete(_ context.Context, lotID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[lotID]; !ok {
		return apperror.NewNotFound("lot", lotID)
	}
	delete(r.items, lotID)
	return nil
}

func (r *LotRepository) ListAvailableForUpdate(_ context.Context, productID id.ID) ([]*lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*lots.Lot
	for _, lot := range r.items {
		if lot.ProductID == productID && lot.Status == lots.StatusAvailable && lot.Quantity > 0 {
			cp := *lot
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EntryDate.Equal(result[j].EntryDate) {
			return result[i].EntryDate.Before(result[j].EntryDate)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *LotRepository) NewestAvailableForUpdate(_ context.Context, productID id.ID) (*lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest *lots.Lot
	for _, lot := range r.items {
		if lot.ProductID != productID || lot.Status != lots.StatusAvailable {
			continue
		}
		if newest == nil ||
			lot.EntryDate.After(newest.EntryDate) ||
			(lot.EntryDate.Equal(newest.EntryDate) && lot.ID.String() > newest.ID.String()) {
			newest = lot
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (r *LotRepository) TotalAvailable(_ context.Context, productID id.ID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, lot := range r.items {
		if lot.ProductID == productID && lot.Status == lots.StatusAvailable {
			total += lot.Quantity
		}
	}
	return total, nil
}

func (r *LotRepository) SumQuantities(_ context.Context, warehouseID id.ID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, lot := range r.items {
		if lot.WarehouseID == warehouseID {
			total += lot.Quantity
		}
	}
	return total, nil
}

func (r *LotRepository) ListExpired(_ context.Context, now time.Time) ([]*lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*lots.Lot
	for _, lot := range r.items {
		if lot.Status == lots.StatusExpired || lot.ExpiryDate == nil {
			continue
		}
		if lot.ExpiryDate.Before(now) {
			cp := *lot
			result = append(result, &cp)
		}
	}
	sortByEntry(result)
	return result, nil
}

func (r *LotRepository) ListExpiringBetween(_ context.Context, from, to time.Time) ([]*lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*lots.Lot
	for _, lot := range r.items {
		if lot.Status == lots.StatusExpired || lot.ExpiryDate == nil {
			continue
		}
		if !lot.ExpiryDate.Before(from) && !lot.ExpiryDate.After(to) {
			cp := *lot
			result = append(result, &cp)
		}
	}
	sortByEntry(result)
	return result, nil
}

func (r *LotRepository) List(_ context.Context, filter lots.Filter) ([]*lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*lots.Lot
	for _, lot := range r.items {
		if filter.ProductID != nil && lot.ProductID != *filter.ProductID {
			continue
		}
		if filter.WarehouseID != nil && lot.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Status != nil && lot.Status != *filter.Status {
			continue
		}
		cp := *lot
		result = append(result, &cp)
	}
	sortByEntry(result)

	if filter.Offset > len(result) {
		filter.Offset = len(result)
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func sortByEntry(ls []*lots.Lot) {
	sort.Slice(ls, func(i, j int) bool {
		if !ls[i].EntryDate.Equal(ls[j].EntryDate) {
			return ls[i].EntryDate.Before(ls[j].EntryDate)
		}
		return ls[i].ID.String() < ls[j].ID.String()
	})
}
