package requests

import (
	"context"
	"fmt"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
	"comptoir/internal/core/tx"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/lots"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

// Service drives the replenishment request workflow.
type Service struct {
	repo      Repository
	products  product.Repository
	store     *lots.Store
	numerator numerator.Generator
	clock     clock.Clock
	txManager tx.Manager
}

// NewService creates a replenishment request service.
func NewService(
	repo Repository,
	products product.Repository,
	store *lots.Store,
	gen numerator.Generator,
	clk clock.Clock,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		store:     store,
		numerator: gen,
		clock:     clk,
		txManager: txManager,
	}
}

// LineInput is one requested restock position.
type LineInput struct {
	ProductID     id.ID
	Quantity      int64
	Justification string
}

// CreateInput describes a new replenishment request draft. An empty
// Priority defaults to Normal.
type CreateInput struct {
	Reason   string
	Priority Priority
	Comment  string
	Lines    []LineInput
}

// Create builds a Draft request, snapshotting each product's current
// availability and reorder threshold onto the line.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Request, error) {
	now := s.clock.Now()

	req := &Request{
		Document: entity.NewDocument(now),
		Reason:   in.Reason,
		Priority: in.Priority,
		Status:   StatusDraft,
	}
	req.Comment = in.Comment
	if req.Priority == "" {
		req.Priority = PriorityNormal
	}

	for _, li := range in.Lines {
		p, err := s.products.GetByID(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		onHand, err := s.store.TotalAvailable(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		req.Lines = append(req.Lines, &Line{
			ID:                id.New(),
			RequestID:         req.ID,
			ProductID:         li.ProductID,
			QuantityRequested: li.Quantity,
			QuantityOnHand:    onHand,
			ReorderThreshold:  p.ReorderThreshold,
			Justification:     li.Justification,
		})
	}

	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("DA"), nil, now)
	if err != nil {
		return nil, fmt.Errorf("generate request number: %w", err)
	}
	req.Number = number

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create replenishment request: %w", err)
	}

	logger.Info(ctx, "replenishment request created",
		"id", req.ID,
		"number", req.Number,
		"priority", req.Priority,
	)

	return req, nil
}

// Submit sends a Draft request for processing.
func (s *Service) Submit(ctx context.Context, requestID id.ID) (*Request, error) {
	return s.transition(ctx, requestID, StatusSent, nil)
}

// Take moves a Sent request to InProgress, marking that someone is
// handling it.
func (s *Service) Take(ctx context.Context, requestID id.ID) (*Request, error) {
	return s.transition(ctx, requestID, StatusInProgress, nil)
}

// Process closes the request as fulfilled. The note is optional.
func (s *Service) Process(ctx context.Context, requestID id.ID, note string) (*Request, error) {
	return s.transition(ctx, requestID, StatusProcessed, func(req *Request) error {
		now := s.clock.Now()
		req.ProcessedAt = &now
		req.ProcessingNote = note
		return nil
	})
}

// Reject closes the request as refused. A note explaining the refusal
// is required.
func (s *Service) Reject(ctx context.Context, requestID id.ID, note string) (*Request, error) {
	if note == "" {
		return nil, apperror.NewValidation("a rejection note is required").
			WithDetail("field", "note")
	}
	return s.transition(ctx, requestID, StatusRejected, func(req *Request) error {
		now := s.clock.Now()
		req.ProcessedAt = &now
		req.ProcessingNote = note
		return nil
	})
}

// Cancel withdraws the request. Processed and Rejected requests are
// final.
func (s *Service) Cancel(ctx context.Context, requestID id.ID) (*Request, error) {
	return s.transition(ctx, requestID, StatusCancelled, nil)
}

func (s *Service) transition(ctx context.Context, requestID id.ID, target Status, apply func(*Request) error) (*Request, error) {
	var req *Request
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Status.CanTransition(target) {
			return apperror.NewInvalidTransition("replenishment request", string(req.Status), string(target))
		}
		if apply != nil {
			if err := apply(req); err != nil {
				return err
			}
		}
		req.Status = target
		req.Touch(s.clock.Now())
		return s.repo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "replenishment request transitioned",
		"id", req.ID,
		"number", req.Number,
		"status", req.Status,
	)

	return req, nil
}

// GetByID retrieves a request with its lines.
func (s *Service) GetByID(ctx context.Context, requestID id.ID) (*Request, error) {
	return s.repo.GetByID(ctx, requestID)
}

// List retrieves requests with filtering.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Request, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}
