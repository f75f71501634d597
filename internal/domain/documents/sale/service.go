package sale

import (
	"context"
	"fmt"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
	"comptoir/internal/core/tx"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/allocation"
	"comptoir/internal/domain/billing"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/lots"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

// Service drives the sale lifecycle.
type Service struct {
	repo      Repository
	products  product.Repository
	store     *lots.Store
	engine    *allocation.Engine
	ledger    *billing.Ledger
	numerator numerator.Generator
	clock     clock.Clock
	txManager tx.Manager
}

// NewService creates a sale service.
func NewService(
	repo Repository,
	products product.Repository,
	store *lots.Store,
	engine *allocation.Engine,
	ledger *billing.Ledger,
	gen numerator.Generator,
	clk clock.Clock,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		store:     store,
		engine:    engine,
		ledger:    ledger,
		numerator: gen,
		clock:     clk,
		txManager: txManager,
	}
}

// LineInput is one requested sale position. A nil UnitPrice falls back
// to the product's catalog sale price.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice *types.Money
}

// CreateInput describes a new sale draft.
type CreateInput struct {
	CustomerName string
	Discount     types.Money
	Comment      string
	Lines        []LineInput
}

// Create builds a Draft sale. Stock availability is checked per line
// as a courtesy so obviously unfillable drafts are rejected early; the
// binding check happens again at validation under locks.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Sale, error) {
	now := s.clock.Now()

	doc := &Sale{
		Document:     entity.NewDocument(now),
		CustomerName: in.CustomerName,
		Status:       StatusDraft,
		Discount:     in.Discount,
	}
	for _, li := range in.Lines {
		p, err := s.products.GetByID(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}

		available, err := s.store.TotalAvailable(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		if available < li.Quantity {
			return nil, apperror.NewInsufficientStock(li.ProductID.String(), li.Quantity, available)
		}

		price := p.SalePrice
		if li.UnitPrice != nil {
			price = *li.UnitPrice
		}
		doc.Lines = append(doc.Lines, &Line{
			ID:        id.New(),
			SaleID:    doc.ID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			UnitPrice: price,
		})
	}

	doc.Comment = in.Comment
	doc.Recalculate()
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("V"), nil, now)
	if err != nil {
		return nil, fmt.Errorf("generate sale number: %w", err)
	}
	doc.Number = number

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	logger.Info(ctx, "sale created",
		"id", doc.ID,
		"number", doc.Number,
		"customer", doc.CustomerName,
		"total", doc.TotalWithTax,
	)

	return doc, nil
}

// Validate moves a Draft sale to Validated: stock is consumed FIFO per
// line and the customer invoice is issued, all in one transaction. On
// INSUFFICIENT_STOCK nothing is consumed and the sale stays Draft.
func (s *Service) Validate(ctx context.Context, saleID id.ID) (*Sale, error) {
	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !doc.Status.CanTransition(StatusValidated) {
			return apperror.NewInvalidTransition("sale", string(doc.Status), string(StatusValidated))
		}

		// Check total demand per product before debiting anything, so
		// a short later line cannot leave earlier lines consumed.
		demand := make(map[id.ID]int64)
		for _, ln := range doc.Lines {
			demand[ln.ProductID] += ln.Quantity
		}
		for productID, qty := range demand {
			available, err := s.store.TotalAvailable(ctx, productID)
			if err != nil {
				return err
			}
			if available < qty {
				return apperror.NewInsufficientStock(productID.String(), qty, available)
			}
		}

		for _, ln := range doc.Lines {
			allocs, err := s.engine.Allocate(ctx, ln.ProductID, ln.Quantity)
			if err != nil {
				return err
			}
			ln.Allocations = allocs
		}

		doc.Status = StatusValidated
		doc.Touch(s.clock.Now())
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		if _, err := s.ledger.IssueCustomerInvoice(ctx, doc.ID, doc.TotalWithTax); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stock levels moved; surface any shortage the sale caused.
	for _, ln := range doc.Lines {
		if err := s.store.CheckLowStock(ctx, ln.ProductID); err != nil {
			logger.Warn(ctx, "low stock check failed", "product_id", ln.ProductID, "error", err)
		}
	}

	logger.Info(ctx, "sale validated", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// MarkDelivered moves a Validated sale to Delivered.
func (s *Service) MarkDelivered(ctx context.Context, saleID id.ID) (*Sale, error) {
	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !doc.Status.CanTransition(StatusDelivered) {
			return apperror.NewInvalidTransition("sale", string(doc.Status), string(StatusDelivered))
		}
		doc.Status = StatusDelivered
		doc.Touch(s.clock.Now())
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale delivered", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Cancel voids the sale. A Validated sale releases its consumed stock
// line by line and voids its invoice even when payments were already
// recorded against it. A Draft sale just flips status.
func (s *Service) Cancel(ctx context.Context, saleID id.ID) (*Sale, error) {
	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !doc.Status.CanTransition(StatusCancelled) {
			return apperror.NewInvalidTransition("sale", string(doc.Status), string(StatusCancelled))
		}

		if doc.Status == StatusValidated {
			for _, ln := range doc.Lines {
				if err := s.engine.Release(ctx, ln.ProductID, ln.Quantity); err != nil {
					return err
				}
			}
			if err := s.ledger.CancelBySale(ctx, doc.ID); err != nil {
				return err
			}
		}

		doc.Status = StatusCancelled
		doc.Touch(s.clock.Now())
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a sale with its lines.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Sale, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}
