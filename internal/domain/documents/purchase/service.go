package purchase

import (
	"context"
	"fmt"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
	"comptoir/internal/core/tx"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/billing"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/lots"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

// Service drives the purchase order lifecycle.
type Service struct {
	repo      Repository
	products  product.Repository
	store     *lots.Store
	ledger    *billing.Ledger
	numerator numerator.Generator
	clock     clock.Clock
	txManager tx.Manager
}

// NewService creates a purchase order service.
func NewService(
	repo Repository,
	products product.Repository,
	store *lots.Store,
	ledger *billing.Ledger,
	gen numerator.Generator,
	clk clock.Clock,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		store:     store,
		ledger:    ledger,
		numerator: gen,
		clock:     clk,
		txManager: txManager,
	}
}

// LineInput is one requested order position. A nil UnitCost falls back
// to the product's catalog purchase price.
type LineInput struct {
	ProductID  id.ID
	Quantity   int64
	UnitCost   *types.Money
	ExpiryDate *time.Time
}

// CreateInput describes a new purchase order draft.
type CreateInput struct {
	SupplierName string
	Comment      string
	ExpectedDate *time.Time
	Lines        []LineInput
}

// Create builds a Draft purchase order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	now := s.clock.Now()

	order := &Order{
		Document:     entity.NewDocument(now),
		SupplierName: in.SupplierName,
		Status:       StatusDraft,
		ExpectedDate: in.ExpectedDate,
	}
	order.Comment = in.Comment

	for _, li := range in.Lines {
		p, err := s.products.GetByID(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}

		cost := p.PurchasePrice
		if li.UnitCost != nil {
			cost = *li.UnitCost
		}
		order.Lines = append(order.Lines, &Line{
			ID:         id.New(),
			OrderID:    order.ID,
			ProductID:  li.ProductID,
			Quantity:   li.Quantity,
			UnitCost:   cost,
			ExpiryDate: li.ExpiryDate,
		})
	}

	order.Recalculate()
	if err := order.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CA"), nil, now)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}
	order.Number = number

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	logger.Info(ctx, "purchase order created",
		"id", order.ID,
		"number", order.Number,
		"supplier", order.SupplierName,
		"total", order.Total,
	)

	return order, nil
}

// Validate moves a Draft order to Validated, confirming it with the
// supplier. No stock moves yet.
func (s *Service) Validate(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.transition(ctx, orderID, StatusValidated)
}

// Receive books the delivered goods: one stock lot per line in the
// target warehouse and the supplier invoice for the order total, all
// in one transaction. Warehouse capacity is checked for the whole
// delivery before any lot is created. The order ends up Received.
func (s *Service) Receive(ctx context.Context, orderID, warehouseID id.ID) (*Order, error) {
	var order *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(StatusReceived) {
			return apperror.NewInvalidTransition("purchase order", string(order.Status), string(StatusReceived))
		}

		var incoming int64
		for _, ln := range order.Lines {
			incoming += ln.Quantity
		}
		if err := s.store.EnsureCapacity(ctx, warehouseID, incoming); err != nil {
			return err
		}

		for _, ln := range order.Lines {
			_, err := s.store.CreateLot(ctx, lots.CreateLotInput{
				ProductID:   ln.ProductID,
				WarehouseID: warehouseID,
				Quantity:    ln.Quantity,
				ExpiryDate:  ln.ExpiryDate,
			})
			if err != nil {
				return err
			}
		}

		if _, err := s.ledger.IssueSupplierInvoice(ctx, order.ID, order.Total); err != nil {
			return err
		}

		order.Status = StatusReceived
		order.Touch(s.clock.Now())
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order received",
		"id", order.ID,
		"number", order.Number,
		"warehouse_id", warehouseID,
	)

	return order, nil
}

// Cancel voids a Draft or Validated order. Received orders are final.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.transition(ctx, orderID, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, orderID id.ID, target Status) (*Order, error) {
	var order *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(target) {
			return apperror.NewInvalidTransition("purchase order", string(order.Status), string(target))
		}
		order.Status = target
		order.Touch(s.clock.Now())
		return s.repo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order transitioned",
		"id", order.ID,
		"number", order.Number,
		"status", order.Status,
	)

	return order, nil
}

// GetByID retrieves a purchase order with its lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}
