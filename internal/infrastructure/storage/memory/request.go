package memory

import (
	"context"
	"sort"
	"sync"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/requests"
)

// RequestRepository is an in-process replenishment request store.
type RequestRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*requests.Request
}

// NewRequestRepository creates an empty replenishment request repository.
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{items: make(map[id.ID]*requests.Request)}
}

func cloneRequest(r *requests.Request) *requests.Request {
	cp := *r
	cp.Lines = make([]*requests.Line, len(r.Lines))
	for i, ln := range r.Lines {
		lcp := *ln
		cp.Lines[i] = &lcp
	}
	return &cp
}

func (r *RequestRepository) Create(_ context.Context, req *requests.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[req.ID] = cloneRequest(req)
	return nil
}

func (r *RequestRepository) GetByID(_ context.Context, requestID id.ID) (*requests.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.items[requestID]
	if !ok {
		return nil, apperror.NewNotFound("replenishment request", requestID)
	}
	return cloneRequest(req), nil
}

// GetForUpdate behaves like GetByID; the transaction manager's global
// lock stands in for the row lock.
func (r *RequestRepository) GetForUpdate(ctx context.Context, requestID id.ID) (*requests.Request, error) {
	return r.GetByID(ctx, requestID)
}

func (r *RequestRepository) Update(_ context.Context, req *requests.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[req.ID]; !ok {
		return apperror.NewNotFound("replenishment request", req.ID)
	}
	r.items[req.ID] = cloneRequest(req)
	return nil
}

func (r *RequestRepository) List(_ context.Context, filter requests.Filter) ([]*requests.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*requests.Request
	for _, req := range r.items {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && req.Priority != filter.Priority {
			continue
		}
		result = append(result, cloneRequest(req))
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
