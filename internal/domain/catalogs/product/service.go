package product

import (
	"context"
	"fmt"

	"comptoir/internal/core/clock"
	"comptoir/internal/core/id"
	"comptoir/internal/domain"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

// Service provides business logic for the Product catalog.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	clock     clock.Clock
}

// NewService creates a new Product service.
func NewService(repo Repository, gen numerator.Generator, clk clock.Clock) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
		clock:     clk,
	}
}

// Create validates and persists a product, generating the code when empty.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.Config{
			Prefix:      "PRD",
			PadWidth:    3,
			ResetPeriod: "never",
		}, nil, s.clock.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "id", p.ID, "code", p.Code)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Update validates and persists changes to a product.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	p.Touch(s.clock.Now())
	return s.repo.Update(ctx, p)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
