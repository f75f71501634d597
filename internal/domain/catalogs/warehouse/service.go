package warehouse

import (
	"context"
	"fmt"

	"comptoir/internal/core/clock"
	"comptoir/internal/core/id"
	"comptoir/internal/domain"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

// Service provides business logic for the Warehouse catalog.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	clock     clock.Clock
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, gen numerator.Generator, clk clock.Clock) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
		clock:     clk,
	}
}

// Create validates and persists a warehouse, generating the code when empty.
func (s *Service) Create(ctx context.Context, w *Warehouse) error {
	if err := w.Validate(ctx); err != nil {
		return err
	}

	if w.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.Config{
			Prefix:      "WH",
			PadWidth:    3,
			ResetPeriod: "never",
		}, nil, s.clock.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		w.Code = code
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}

	logger.Info(ctx, "warehouse created", "id", w.ID, "code", w.Code)
	return nil
}

// GetByID retrieves a warehouse.
func (s *Service) GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	return s.repo.GetByID(ctx, warehouseID)
}

// Update validates and persists changes to a warehouse.
func (s *Service) Update(ctx context.Context, w *Warehouse) error {
	if err := w.Validate(ctx); err != nil {
		return err
	}

	w.Touch(s.clock.Now())
	return s.repo.Update(ctx, w)
}

// List retrieves warehouses with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Warehouse], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
