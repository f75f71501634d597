package lots

import (
	"context"
	"fmt"
	"time"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/entity"
	"comptoir/internal/core/id"
	"comptoir/internal/core/tx"
	"comptoir/internal/domain/alerts"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

// Store owns stock lots: creation, quantity adjustment, availability
// and expiry sweeps. All other components mutate stock through it.
type Store struct {
	repo       Repository
	warehouses warehouse.Repository
	products   product.Repository
	alerts     *alerts.Service
	numerator  numerator.Generator
	clock      clock.Clock
	txManager  tx.Manager
}

// NewStore creates a lot store.
func NewStore(
	repo Repository,
	warehouses warehouse.Repository,
	products product.Repository,
	alertSvc *alerts.Service,
	gen numerator.Generator,
	clk clock.Clock,
	txManager tx.Manager,
) *Store {
	return &Store{
		repo:       repo,
		warehouses: warehouses,
		products:   products,
		alerts:     alertSvc,
		numerator:  gen,
		clock:      clk,
		txManager:  txManager,
	}
}

// CreateLotInput describes a stock entry.
type CreateLotInput struct {
	ProductID   id.ID
	WarehouseID id.ID
	Quantity    int64
	Location    string
	BatchNumber string
	ExpiryDate  *time.Time
}

// CreateLot records a stock entry after checking warehouse capacity.
// The warehouse row is locked for the check-then-insert sequence so
// two concurrent entries cannot jointly overflow the capacity.
func (s *Store) CreateLot(ctx context.Context, in CreateLotInput) (*Lot, error) {
	if in.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	var lot *Lot
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wh, err := s.warehouses.GetForUpdate(ctx, in.WarehouseID)
		if err != nil {
			return err
		}

		if wh.HasCapacityLimit() {
			occupied, err := s.repo.SumQuantities(ctx, in.WarehouseID)
			if err != nil {
				return fmt.Errorf("sum warehouse quantities: %w", err)
			}
			if occupied+in.Quantity > wh.Capacity {
				return apperror.NewCapacityExceeded(wh.ID.String(), in.Quantity, wh.Free(occupied))
			}
		}

		batchNo := in.BatchNumber
		if batchNo == "" {
			batchNo, err = s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("LOT"),
				&numerator.Options{Strategy: numerator.StrategyCached}, now)
			if err != nil {
				return fmt.Errorf("generate batch number: %w", err)
			}
		}

		lot = &Lot{
			BaseEntity:  entity.NewBaseEntity(now),
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			Location:    in.Location,
			EntryDate:   now,
			BatchNumber: batchNo,
			ExpiryDate:  in.ExpiryDate,
			Status:      StatusAvailable,
		}

		if err := s.repo.Create(ctx, lot); err != nil {
			return fmt.Errorf("create lot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "lot created",
		"id", lot.ID,
		"product_id", lot.ProductID,
		"warehouse_id", lot.WarehouseID,
		"quantity", lot.Quantity,
		"batch", lot.BatchNumber,
	)

	return lot, nil
}

// EnsureCapacity verifies the warehouse can absorb incoming units on
// top of its current stock, locking the warehouse row. Callers booking
// several lots in one transaction check the aggregate here first so a
// later lot cannot fail after earlier ones were created. Warehouses
// without a capacity limit always pass.
func (s *Store) EnsureCapacity(ctx context.Context, warehouseID id.ID, incoming int64) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		wh, err := s.warehouses.GetForUpdate(ctx, warehouseID)
		if err != nil {
			return err
		}
		if !wh.HasCapacityLimit() {
			return nil
		}

		occupied, err := s.repo.SumQuantities(ctx, warehouseID)
		if err != nil {
			return fmt.Errorf("sum warehouse quantities: %w", err)
		}
		if occupied+incoming > wh.Capacity {
			return apperror.NewCapacityExceeded(wh.ID.String(), incoming, wh.Free(occupied))
		}
		return nil
	})
}

// AdjustQuantity applies delta to a lot's quantity under a row lock.
// A result below zero fails with NEGATIVE_QUANTITY and leaves the lot
// untouched. A lot whose expiry date has passed is forced to Expired
// regardless of the delta sign; status is never otherwise changed here.
func (s *Store) AdjustQuantity(ctx context.Context, lotID id.ID, delta int64) (*Lot, error) {
	var lot *Lot
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		lot, err = s.repo.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}

		newQty := lot.Quantity + delta
		if newQty < 0 {
			return apperror.NewNegativeQuantity(lot.ID.String(), lot.Quantity, delta)
		}

		lot.Quantity = newQty
		if lot.IsExpired(s.clock.Now()) {
			lot.Status = StatusExpired
		}
		lot.Touch(s.clock.Now())

		return s.repo.Update(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	return lot, nil
}

// TotalAvailable sums Available lot quantities for a product.
func (s *Store) TotalAvailable(ctx context.Context, productID id.ID) (int64, error) {
	return s.repo.TotalAvailable(ctx, productID)
}

// ExpirationReport is the result of an expiry sweep.
type ExpirationReport struct {
	Expired      []*Lot `json:"expired"`
	ExpiringSoon []*Lot `json:"expiringSoon"`
}

// CheckExpirations transitions past-expiry lots to Expired (persisted)
// and reports lots expiring within horizonDays (inclusive) without
// mutating them. Every finding emits an expiry alert.
func (s *Store) CheckExpirations(ctx context.Context, horizonDays int) (*ExpirationReport, error) {
	if horizonDays < 0 {
		return nil, apperror.NewValidation("horizon must not be negative").
			WithDetail("field", "horizonDays")
	}

	now := s.clock.Now()
	deadline := now.AddDate(0, 0, horizonDays)

	report := &ExpirationReport{}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		expired, err := s.repo.ListExpired(ctx, now)
		if err != nil {
			return fmt.Errorf("list expired: %w", err)
		}

		for _, lot := range expired {
			lot.Status = StatusExpired
			lot.Touch(now)
			if err := s.repo.Update(ctx, lot); err != nil {
				return fmt.Errorf("expire lot %s: %w", lot.ID, err)
			}

			msg := fmt.Sprintf("Lot %s of product %s is expired", lot.BatchNumber, s.productName(ctx, lot.ProductID))
			if err := s.alerts.Emit(ctx, alerts.TypeExpiry, lot.ProductID, msg); err != nil {
				return err
			}
		}
		report.Expired = expired

		soon, err := s.repo.ListExpiringBetween(ctx, now, deadline)
		if err != nil {
			return fmt.Errorf("list expiring: %w", err)
		}

		for _, lot := range soon {
			msg := fmt.Sprintf("Lot %s of product %s expires in %d day(s)",
				lot.BatchNumber, s.productName(ctx, lot.ProductID), lot.DaysUntilExpiry(now))
			if err := s.alerts.Emit(ctx, alerts.TypeExpiry, lot.ProductID, msg); err != nil {
				return err
			}
		}
		report.ExpiringSoon = soon

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expiration sweep finished",
		"expired", len(report.Expired),
		"expiring_soon", len(report.ExpiringSoon),
	)

	return report, nil
}

// CreateReturnLot creates a lot at the returns location, bypassing the
// capacity check: released stock is never lost.
func (s *Store) CreateReturnLot(ctx context.Context, productID id.ID, quantity int64) (*Lot, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	returns, err := s.warehouses.GetReturns(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	batchNo, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("LOT"),
		&numerator.Options{Strategy: numerator.StrategyCached}, now)
	if err != nil {
		return nil, fmt.Errorf("generate batch number: %w", err)
	}

	lot := &Lot{
		BaseEntity:  entity.NewBaseEntity(now),
		ProductID:   productID,
		WarehouseID: returns.ID,
		Quantity:    quantity,
		Location:    "Returns",
		EntryDate:   now,
		BatchNumber: batchNo,
		Status:      StatusAvailable,
	}

	if err := s.repo.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("create return lot: %w", err)
	}

	logger.Info(ctx, "return lot created",
		"id", lot.ID,
		"product_id", productID,
		"quantity", quantity,
	)

	return lot, nil
}

// GetByID retrieves a lot.
func (s *Store) GetByID(ctx context.Context, lotID id.ID) (*Lot, error) {
	return s.repo.GetByID(ctx, lotID)
}

// List retrieves lots with filtering.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Lot, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Delete removes a lot. An Available lot still holding quantity is
// never hard-deleted.
func (s *Store) Delete(ctx context.Context, lotID id.ID) error {
	lot, err := s.repo.GetByID(ctx, lotID)
	if err != nil {
		return err
	}

	if lot.Quantity > 0 && lot.Status == StatusAvailable {
		return apperror.NewConflict("cannot delete an available lot with remaining quantity").
			WithDetail("lot_id", lot.ID.String()).
			WithDetail("quantity", lot.Quantity)
	}

	return s.repo.Delete(ctx, lotID)
}

// CheckLowStock emits Rupture / StockFaible alerts for a product after
// its availability changed.
func (s *Store) CheckLowStock(ctx context.Context, productID id.ID) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	available, err := s.repo.TotalAvailable(ctx, productID)
	if err != nil {
		return err
	}

	switch {
	case available == 0:
		msg := fmt.Sprintf("Product %s is out of stock", p.Name)
		return s.alerts.Emit(ctx, alerts.TypeStockout, productID, msg)
	case available < p.ReorderThreshold:
		msg := fmt.Sprintf("Product %s is below its reorder threshold (%d left)", p.Name, available)
		return s.alerts.Emit(ctx, alerts.TypeLowStock, productID, msg)
	}

	return nil
}

func (s *Store) productName(ctx context.Context, productID id.ID) string {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return productID.String()
	}
	return p.Name
}
