package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
)

// ProductRepository is an in-process product store.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*product.Product
}

// NewProductRepository creates an empty product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{items: make(map[id.ID]*product.Product)}
}

func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Code == p.Code {
			return apperror.NewConflict("product code already exists").WithDetail("code", p.Code)
		}
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepository) GetByCode(_ context.Context, code string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *ProductRepository) Update(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[p.ID]; !ok {
		return apperror.NewNotFound("product", p.ID)
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *ProductRepository) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter.Normalize()

	matched := make([]*product.Product, 0, len(r.items))
	for _, p := range r.items {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(p.Code), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })

	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *ProductRepository) Exists(_ context.Context, productID id.ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[productID]
	return ok, nil
}

// WarehouseRepository is an in-process warehouse store.
type WarehouseRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*warehouse.Warehouse
}

// NewWarehouseRepository creates an empty warehouse repository.
func NewWarehouseRepository() *WarehouseRepository {
	return &WarehouseRepository{items: make(map[id.ID]*warehouse.Warehouse)}
}

func (r *WarehouseRepository) Create(_ context.Context, w *warehouse.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Code == w.Code {
			return apperror.NewConflict("warehouse code already exists").WithDetail("code", w.Code)
		}
	}
	cp := *w
	r.items[w.ID] = &cp
	return nil
}

func (r *WarehouseRepository) GetByID(_ context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.items[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	cp := *w
	return &cp, nil
}

func (r *WarehouseRepository) GetByCode(_ context.Context, code string) (*warehouse.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.items {
		if w.Code == code {
			cp := *w
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", code)
}

// GetForUpdate behaves like GetByID; the transaction manager's global
// lock stands in for the row lock.
func (r *WarehouseRepository) GetForUpdate(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return r.GetByID(ctx, warehouseID)
}

func (r *WarehouseRepository) GetReturns(_ context.Context) (*warehouse.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.items {
		if w.IsReturns {
			cp := *w
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", "returns")
}

func (r *WarehouseRepository) Update(_ context.Context, w *warehouse.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[w.ID]; !ok {
		return apperror.NewNotFound("warehouse", w.ID)
	}
	cp := *w
	r.items[w.ID] = &cp
	return nil
}

func (r *WarehouseRepository) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*warehouse.Warehouse], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter.Normalize()

	matched := make([]*warehouse.Warehouse, 0, len(r.items))
	for _, w := range r.items {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(w.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(w.Code), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *w
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })

	return paginate(matched, filter.Limit, filter.Offset), nil
}

func paginate[T any](items []T, limit, offset int) domain.ListResult[T] {
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return domain.ListResult[T]{
		Items:      items[offset:end],
		TotalCount: int64(total),
		Limit:      limit,
		Offset:     offset,
	}
}
