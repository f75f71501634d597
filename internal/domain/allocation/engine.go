package allocation

import (
	"context"
	"fmt"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/core/tx"
	"comptoir/internal/domain/lots"
	"comptoir/pkg/logger"
)

// Allocation records a quantity taken from a single lot.
type Allocation struct {
	LotID    id.ID `json:"lotId"`
	Quantity int64 `json:"quantity"`
}

// Engine consumes and restores stock for document lines. Consumption
// is strictly FIFO over Available lots; release goes back to the
// newest lot so the oldest stock stays first in line.
type Engine struct {
	store     *lots.Store
	repo      lots.Repository
	txManager tx.Manager
}

// NewEngine creates an allocation engine.
func NewEngine(store *lots.Store, repo lots.Repository, txManager tx.Manager) *Engine {
	return &Engine{store: store, repo: repo, txManager: txManager}
}

// Allocate debits quantity from the product's Available lots, oldest
// entry date first (lot id breaks ties). The operation is all or
// nothing: every candidate lot is locked, total availability is
// verified, and only then are lots debited. On INSUFFICIENT_STOCK no
// lot has been touched.
func (e *Engine) Allocate(ctx context.Context, productID id.ID, quantity int64) ([]Allocation, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	var result []Allocation
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		candidates, err := e.repo.ListAvailableForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("list available lots: %w", err)
		}

		var available int64
		for _, lot := range candidates {
			available += lot.Quantity
		}
		if available < quantity {
			return apperror.NewInsufficientStock(productID.String(), quantity, available)
		}

		remaining := quantity
		for _, lot := range candidates {
			if remaining == 0 {
				break
			}
			take := lot.Quantity
			if take > remaining {
				take = remaining
			}

			if _, err := e.store.AdjustQuantity(ctx, lot.ID, -take); err != nil {
				return err
			}

			result = append(result, Allocation{LotID: lot.ID, Quantity: take})
			remaining -= take
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock allocated",
		"product_id", productID,
		"quantity", quantity,
		"lots", len(result),
	)

	return result, nil
}

// Release puts quantity back into stock. The newest Available lot of
// the product is credited; when none exists, a fresh lot is created at
// the returns location without a capacity check.
func (e *Engine) Release(ctx context.Context, productID id.ID, quantity int64) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		newest, err := e.repo.NewestAvailableForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("find newest lot: %w", err)
		}

		if newest != nil {
			_, err := e.store.AdjustQuantity(ctx, newest.ID, quantity)
			return err
		}

		_, err = e.store.CreateReturnLot(ctx, productID, quantity)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock released",
		"product_id", productID,
		"quantity", quantity,
	)

	return nil
}
