package alerts

import (
	"context"
	"fmt"

	"comptoir/internal/core/clock"
	"comptoir/internal/core/id"
	"comptoir/pkg/logger"
)

// Service emits and manages stock alerts.
type Service struct {
	repo  Repository
	clock clock.Clock
}

// NewService creates a new alert service.
func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{
		repo:  repo,
		clock: clk,
	}
}

// Emit creates an alert unless an identical unread one is pending.
// Deduplication key is (type, productId, message).
func (s *Service) Emit(ctx context.Context, alertType Type, productID id.ID, message string) error {
	exists, err := s.repo.ExistsUnread(ctx, alertType, productID, message)
	if err != nil {
		return fmt.Errorf("check unread: %w", err)
	}
	if exists {
		return nil
	}

	alert := &Alert{
		ID:        id.New(),
		Type:      alertType,
		ProductID: productID,
		Message:   message,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	logger.Info(ctx, "alert emitted",
		"type", alertType,
		"product_id", productID,
	)

	return nil
}

// List retrieves alerts.
func (s *Service) List(ctx context.Context, filter Filter) ([]Alert, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// MarkRead acknowledges an alert, re-enabling emission of the same key.
func (s *Service) MarkRead(ctx context.Context, alertID id.ID) error {
	return s.repo.MarkRead(ctx, alertID)
}
