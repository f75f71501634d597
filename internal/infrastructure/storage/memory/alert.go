package memory

import (
	"context"
	"sort"
	"sync"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/alerts"
)

// AlertRepository is an in-process alert store.
type AlertRepository struct {
	mu    sync.RWMutex
	items map[id.ID]alerts.Alert
}

// NewAlertRepository creates an empty alert repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{items: make(map[id.ID]alerts.Alert)}
}

func (r *AlertRepository) Create(_ context.Context, a *alerts.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[a.ID] = *a
	return nil
}

func (r *AlertRepository) ExistsUnread(_ context.Context, alertType alerts.Type, productID id.ID, message string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if !a.Read && a.Type == alertType && a.ProductID == productID && a.Message == message {
			return true, nil
		}
	}
	return false, nil
}

func (r *AlertRepository) List(_ context.Context, filter alerts.Filter) ([]alerts.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []alerts.Alert
	for _, a := range r.items {
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		if filter.ProductID != nil && a.ProductID != *filter.ProductID {
			continue
		}
		if filter.UnreadOnly && a.Read {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *AlertRepository) MarkRead(_ context.Context, alertID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[alertID]
	if !ok {
		return apperror.NewNotFound("alert", alertID)
	}
	a.Read = true
	r.items[alertID] = a
	return nil
}
