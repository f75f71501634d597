package lots_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/alerts"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/domain/lots"
	"comptoir/internal/infrastructure/storage/memory"
	"comptoir/pkg/numerator"
)

type fixture struct {
	ctx        context.Context
	clk        *clock.Fixed
	store      *lots.Store
	alerts     *alerts.Service
	products   *memory.ProductRepository
	warehouses *memory.WarehouseRepository
	seq        int
}

func newFixture() *fixture {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	lotRepo := memory.NewLotRepository()
	productRepo := memory.NewProductRepository()
	warehouseRepo := memory.NewWarehouseRepository()
	alertSvc := alerts.NewService(memory.NewAlertRepository(), clk)
	store := lots.NewStore(lotRepo, warehouseRepo, productRepo, alertSvc,
		numerator.NewMemory(), clk, memory.NewTxManager())

	return &fixture{
		ctx:        context.Background(),
		clk:        clk,
		store:      store,
		alerts:     alertSvc,
		products:   productRepo,
		warehouses: warehouseRepo,
	}
}

func (f *fixture) product(t *testing.T, name string, threshold int64) *product.Product {
	t.Helper()
	f.seq++
	p := product.New(fmt.Sprintf("PRD-%03d", f.seq), name, f.clk.Now())
	p.PurchasePrice = types.MustMoney("60")
	p.SalePrice = types.MustMoney("100")
	p.ReorderThreshold = threshold
	require.NoError(t, f.products.Create(f.ctx, p))
	return p
}

func (f *fixture) warehouse(t *testing.T, name string, capacity int64) *warehouse.Warehouse {
	t.Helper()
	f.seq++
	w := warehouse.New(fmt.Sprintf("WH-%03d", f.seq), name, f.clk.Now())
	w.Capacity = capacity
	require.NoError(t, f.warehouses.Create(f.ctx, w))
	return w
}

func (f *fixture) returnsBin(t *testing.T) *warehouse.Warehouse {
	t.Helper()
	f.seq++
	w := warehouse.New(fmt.Sprintf("WH-%03d", f.seq), "Returns", f.clk.Now())
	w.Capacity = 1 // tiny on purpose: return lots must ignore it
	w.IsReturns = true
	require.NoError(t, f.warehouses.Create(f.ctx, w))
	return w
}

func TestCreateLot(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Rice", 0)
	w := f.warehouse(t, "Central", 0)

	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID:   p.ID,
		WarehouseID: w.ID,
		Quantity:    40,
		Location:    "Zone-A",
	})
	require.NoError(t, err)

	assert.Equal(t, lots.StatusAvailable, lot.Status)
	assert.Equal(t, int64(40), lot.Quantity)
	assert.Equal(t, "LOT-2026-00001", lot.BatchNumber)
	assert.Equal(t, f.clk.Now(), lot.EntryDate)
	assert.Equal(t, "Zone-A", lot.Location)
}

func TestCreateLot_KeepsGivenBatchNumber(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Rice", 0)
	w := f.warehouse(t, "Central", 0)

	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID:   p.ID,
		WarehouseID: w.ID,
		Quantity:    5,
		BatchNumber: "SUPPLIER-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "SUPPLIER-42", lot.BatchNumber)
}

func TestCreateLot_CapacityExceeded(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Oil", 0)
	w := f.warehouse(t, "Small", 100)

	_, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 80,
	})
	require.NoError(t, err)

	// Filling up to the exact capacity is allowed.
	_, err = f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 20,
	})
	require.NoError(t, err)

	_, err = f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCapacityExceeded))
}

func TestCreateLot_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Oil", 0)
	w := f.warehouse(t, "Central", 0)

	_, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 0,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestAdjustQuantity(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Sugar", 0)
	w := f.warehouse(t, "Central", 0)

	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10,
	})
	require.NoError(t, err)

	got, err := f.store.AdjustQuantity(f.ctx, lot.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Quantity)

	got, err = f.store.AdjustQuantity(f.ctx, lot.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Quantity)
}

func TestAdjustQuantity_NegativeResultRejected(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Sugar", 0)
	w := f.warehouse(t, "Central", 0)

	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10,
	})
	require.NoError(t, err)

	_, err = f.store.AdjustQuantity(f.ctx, lot.ID, -15)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeQuantity))

	got, err := f.store.GetByID(f.ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)
}

func TestAdjustQuantity_ForcesExpiredStatus(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Milk", 0)
	w := f.warehouse(t, "Central", 0)

	expiry := f.clk.Now().AddDate(0, 0, 2)
	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10, ExpiryDate: &expiry,
	})
	require.NoError(t, err)

	f.clk.Advance(72 * time.Hour)

	got, err := f.store.AdjustQuantity(f.ctx, lot.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, lots.StatusExpired, got.Status)
	assert.Equal(t, int64(15), got.Quantity)
}

func TestCheckExpirations(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Milk", 0)
	w := f.warehouse(t, "Central", 0)

	past := f.clk.Now().AddDate(0, 0, -1)
	soon := f.clk.Now().AddDate(0, 0, 5)
	far := f.clk.Now().AddDate(0, 0, 90)

	expired, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10, ExpiryDate: &past,
	})
	require.NoError(t, err)
	expiring, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10, ExpiryDate: &soon,
	})
	require.NoError(t, err)
	_, err = f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10, ExpiryDate: &far,
	})
	require.NoError(t, err)

	report, err := f.store.CheckExpirations(f.ctx, 30)
	require.NoError(t, err)

	require.Len(t, report.Expired, 1)
	assert.Equal(t, expired.ID, report.Expired[0].ID)
	require.Len(t, report.ExpiringSoon, 1)
	assert.Equal(t, expiring.ID, report.ExpiringSoon[0].ID)

	// The past-expiry lot is persisted as Expired, the expiring one is
	// only reported.
	got, err := f.store.GetByID(f.ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, lots.StatusExpired, got.Status)

	got, err = f.store.GetByID(f.ctx, expiring.ID)
	require.NoError(t, err)
	assert.Equal(t, lots.StatusAvailable, got.Status)

	list, err := f.alerts.List(f.ctx, alerts.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// A second sweep finds the same expiring lot but the unread alert
	// suppresses re-emission.
	_, err = f.store.CheckExpirations(f.ctx, 30)
	require.NoError(t, err)

	list, err = f.alerts.List(f.ctx, alerts.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCheckExpirations_NegativeHorizon(t *testing.T) {
	f := newFixture()

	_, err := f.store.CheckExpirations(f.ctx, -1)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreateReturnLot_BypassesCapacity(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Rice", 0)
	f.returnsBin(t)

	lot, err := f.store.CreateReturnLot(f.ctx, p.ID, 50)
	require.NoError(t, err)

	assert.Equal(t, int64(50), lot.Quantity)
	assert.Equal(t, "Returns", lot.Location)
	assert.Equal(t, lots.StatusAvailable, lot.Status)
}

func TestDelete_GuardsAvailableStock(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Rice", 0)
	w := f.warehouse(t, "Central", 0)

	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10,
	})
	require.NoError(t, err)

	err = f.store.Delete(f.ctx, lot.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))

	_, err = f.store.AdjustQuantity(f.ctx, lot.ID, -10)
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(f.ctx, lot.ID))

	_, err = f.store.GetByID(f.ctx, lot.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCheckLowStock(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Tomato paste", 5)
	w := f.warehouse(t, "Central", 0)

	// No stock at all: stockout.
	require.NoError(t, f.store.CheckLowStock(f.ctx, p.ID))

	lot, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 3,
	})
	require.NoError(t, err)

	// Below the reorder threshold: low stock.
	require.NoError(t, f.store.CheckLowStock(f.ctx, p.ID))

	// At or above the threshold: nothing new.
	_, err = f.store.AdjustQuantity(f.ctx, lot.ID, 10)
	require.NoError(t, err)
	require.NoError(t, f.store.CheckLowStock(f.ctx, p.ID))

	list, err := f.alerts.List(f.ctx, alerts.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	byType := map[alerts.Type]string{}
	for _, a := range list {
		byType[a.Type] = a.Message
	}
	assert.Equal(t, "Product Tomato paste is out of stock", byType[alerts.TypeStockout])
	assert.Equal(t, "Product Tomato paste is below its reorder threshold (3 left)", byType[alerts.TypeLowStock])
}

func TestTotalAvailable_CountsOnlyAvailableLots(t *testing.T) {
	f := newFixture()
	p := f.product(t, "Milk", 0)
	w := f.warehouse(t, "Central", 0)

	past := f.clk.Now().AddDate(0, 0, -1)
	_, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 10, ExpiryDate: &past,
	})
	require.NoError(t, err)
	_, err = f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 7,
	})
	require.NoError(t, err)

	_, err = f.store.CheckExpirations(f.ctx, 0)
	require.NoError(t, err)

	total, err := f.store.TotalAvailable(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
}
