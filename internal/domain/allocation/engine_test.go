package allocation_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/id"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/alerts"
	"comptoir/internal/domain/allocation"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/domain/lots"
	"comptoir/internal/infrastructure/storage/memory"
	"comptoir/pkg/numerator"
)

type fixture struct {
	ctx         context.Context
	clk         *clock.Fixed
	store       *lots.Store
	engine      *allocation.Engine
	lotRepo     *memory.LotRepository
	productRepo *memory.ProductRepository
	warehouse   *warehouse.Warehouse
	seq         int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFixed(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	lotRepo := memory.NewLotRepository()
	productRepo := memory.NewProductRepository()
	warehouseRepo := memory.NewWarehouseRepository()
	alertSvc := alerts.NewService(memory.NewAlertRepository(), clk)
	txm := memory.NewTxManager()
	store := lots.NewStore(lotRepo, warehouseRepo, productRepo, alertSvc,
		numerator.NewMemory(), clk, txm)

	f := &fixture{
		ctx:         context.Background(),
		clk:         clk,
		store:       store,
		engine:      allocation.NewEngine(store, lotRepo, txm),
		lotRepo:     lotRepo,
		productRepo: productRepo,
	}

	w := warehouse.New("WH-001", "Central", clk.Now())
	require.NoError(t, warehouseRepo.Create(f.ctx, w))
	f.warehouse = w

	returns := warehouse.New("WH-RET", "Returns", clk.Now())
	returns.IsReturns = true
	require.NoError(t, warehouseRepo.Create(f.ctx, returns))

	return f
}

func (f *fixture) product(t *testing.T) *product.Product {
	t.Helper()
	f.seq++
	p := product.New(fmt.Sprintf("PRD-%03d", f.seq), fmt.Sprintf("Product %d", f.seq), f.clk.Now())
	p.SalePrice = types.MustMoney("100")
	require.NoError(t, f.productRepo.Create(f.ctx, p))
	return p
}

// lot books a lot and moves the clock forward so entry dates stay
// strictly ordered.
func (f *fixture) lot(t *testing.T, productID id.ID, qty int64) *lots.Lot {
	t.Helper()
	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID:   productID,
		WarehouseID: f.warehouse.ID,
		Quantity:    qty,
	})
	require.NoError(t, err)
	f.clk.Advance(time.Minute)
	return lot
}

func TestAllocate_FIFO(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	oldest := f.lot(t, p.ID, 5)
	newest := f.lot(t, p.ID, 10)

	allocs, err := f.engine.Allocate(f.ctx, p.ID, 8)
	require.NoError(t, err)

	require.Len(t, allocs, 2)
	assert.Equal(t, oldest.ID, allocs[0].LotID)
	assert.Equal(t, int64(5), allocs[0].Quantity)
	assert.Equal(t, newest.ID, allocs[1].LotID)
	assert.Equal(t, int64(3), allocs[1].Quantity)

	got, err := f.store.GetByID(f.ctx, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)

	got, err = f.store.GetByID(f.ctx, newest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Quantity)
}

func TestAllocate_SingleLotWhenEnough(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	oldest := f.lot(t, p.ID, 20)
	newest := f.lot(t, p.ID, 20)

	allocs, err := f.engine.Allocate(f.ctx, p.ID, 12)
	require.NoError(t, err)

	require.Len(t, allocs, 1)
	assert.Equal(t, oldest.ID, allocs[0].LotID)

	got, err := f.store.GetByID(f.ctx, newest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Quantity)
}

func TestAllocate_InsufficientStockTouchesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	a := f.lot(t, p.ID, 5)
	b := f.lot(t, p.ID, 3)

	_, err := f.engine.Allocate(f.ctx, p.ID, 10)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	got, err := f.store.GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)

	got, err = f.store.GetByID(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Quantity)
}

func TestAllocate_IgnoresExpiredLots(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	past := f.clk.Now().AddDate(0, 0, -1)
	_, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: f.warehouse.ID, Quantity: 10, ExpiryDate: &past,
	})
	require.NoError(t, err)
	_, err = f.store.CheckExpirations(f.ctx, 0)
	require.NoError(t, err)

	_, err = f.engine.Allocate(f.ctx, p.ID, 1)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestRelease_CreditsNewestLot(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	oldest := f.lot(t, p.ID, 5)
	newest := f.lot(t, p.ID, 10)

	require.NoError(t, f.engine.Release(f.ctx, p.ID, 4))

	got, err := f.store.GetByID(f.ctx, newest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(14), got.Quantity)

	got, err = f.store.GetByID(f.ctx, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)
}

func TestRelease_NoLotLeftCreatesReturnLot(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	require.NoError(t, f.engine.Release(f.ctx, p.ID, 6))

	list, err := f.lotRepo.List(f.ctx, lots.Filter{ProductID: &p.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(6), list[0].Quantity)
	assert.Equal(t, "Returns", list[0].Location)
}

func TestAllocate_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.product(t)

	_, err := f.engine.Allocate(f.ctx, p.ID, 0)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
