package sale_test

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
	"comptoir/internal/domain/billing"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/domain/documents/sale"
	"comptoir/internal/domain/lots"
	"comptoir/internal/infrastructure/storage/memory"
	"comptoir/pkg/numerator"
)

type fixture struct {
	ctx         context.Context
	clk         *clock.Fixed
	sales       *sale.Service
	store       *lots.Store
	ledger      *billing.Ledger
	invoiceRepo *memory.InvoiceRepository
	alertSvc    *alerts.Service
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
	invoiceRepo := memory.NewInvoiceRepository()
	txm := memory.NewTxManager()
	gen := numerator.NewMemory()

	alertSvc := alerts.NewService(memory.NewAlertRepository(), clk)
	store := lots.NewStore(lotRepo, warehouseRepo, productRepo, alertSvc, gen, clk, txm)
	engine := allocation.NewEngine(store, lotRepo, txm)
	ledger := billing.NewLedger(invoiceRepo, memory.NewPaymentRepository(), gen, clk, txm)
	sales := sale.NewService(memory.NewSaleRepository(), productRepo, store, engine, ledger, gen, clk, txm)

	f := &fixture{
		ctx:         context.Background(),
		clk:         clk,
		sales:       sales,
		store:       store,
		ledger:      ledger,
		invoiceRepo: invoiceRepo,
		alertSvc:    alertSvc,
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

func (f *fixture) product(t *testing.T, name, salePrice string) *product.Product {
	t.Helper()
	f.seq++
	p := product.New(fmt.Sprintf("PRD-%03d", f.seq), name, f.clk.Now())
	p.SalePrice = types.MustMoney(salePrice)
	p.PurchasePrice = types.MustMoney("10")
	require.NoError(t, f.productRepo.Create(f.ctx, p))
	return p
}

func (f *fixture) stock(t *testing.T, productID id.ID, qty int64) *lots.Lot {
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

func TestCreate_Totals(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 10)

	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "V-2026-00001", doc.Number)
	assert.Equal(t, sale.StatusDraft, doc.Status)
	assert.True(t, doc.TotalPreTax.Equal(types.MustMoney("700")), "got %s", doc.TotalPreTax)
	assert.True(t, doc.TotalWithTax.Equal(types.MustMoney("826")), "got %s", doc.TotalWithTax)
}

func TestCreate_DiscountAndExplicitPrice(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 10)

	price := types.MustMoney("300")
	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Moussa Traoré",
		Discount:     types.MustMoney("100"),
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 3, UnitPrice: &price}},
	})
	require.NoError(t, err)

	// 3 x 300 - 100 = 800 pre-tax.
	assert.True(t, doc.TotalPreTax.Equal(types.MustMoney("800")))
	assert.True(t, doc.TotalWithTax.Equal(types.MustMoney("944")))
}

func TestCreate_RejectsUnfillableDraft(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 1)

	_, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 5}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestCreate_RequiresCustomerAndLines(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 10)

	_, err := f.sales.Create(f.ctx, sale.CreateInput{
		Lines: []sale.LineInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.sales.Create(f.ctx, sale.CreateInput{CustomerName: "Aminata Diallo"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestValidate_ConsumesStockAndIssuesInvoice(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	oldest := f.stock(t, p.ID, 5)
	newest := f.stock(t, p.ID, 10)

	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 8}},
	})
	require.NoError(t, err)

	doc, err = f.sales.Validate(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusValidated, doc.Status)

	require.Len(t, doc.Lines, 1)
	allocs := doc.Lines[0].Allocations
	require.Len(t, allocs, 2)
	assert.Equal(t, oldest.ID, allocs[0].LotID)
	assert.Equal(t, int64(5), allocs[0].Quantity)
	assert.Equal(t, newest.ID, allocs[1].LotID)
	assert.Equal(t, int64(3), allocs[1].Quantity)

	total, err := f.store.TotalAvailable(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)

	inv, err := f.invoiceRepo.GetBySaleID(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "F-2026-00001", inv.Number)
	assert.True(t, inv.Total.Equal(doc.TotalWithTax))
	assert.Equal(t, billing.StatusUnpaid, inv.Status)
	assert.Equal(t, f.clk.Now().AddDate(0, 0, 30), inv.DueDate)
}

func TestValidate_InsufficientStockKeepsDraft(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 5)

	first, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	// Drafts do not consume stock, so a second draft for the same
	// units is accepted.
	second, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Moussa Traoré",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = f.sales.Validate(f.ctx, first.ID)
	require.NoError(t, err)

	_, err = f.sales.Validate(f.ctx, second.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	got, err := f.sales.GetByID(f.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusDraft, got.Status)

	_, err = f.invoiceRepo.GetBySaleID(f.ctx, second.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestValidate_ShortLineLeavesOtherLinesUntouched(t *testing.T) {
	f := newFixture(t)
	rice := f.product(t, "Rice", "350")
	oil := f.product(t, "Oil", "500")
	f.stock(t, rice.ID, 10)
	oilLot := f.stock(t, oil.ID, 2)

	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines: []sale.LineInput{
			{ProductID: rice.ID, Quantity: 5},
			{ProductID: oil.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// Oil stock shrinks between draft and validation.
	_, err = f.store.AdjustQuantity(f.ctx, oilLot.ID, -1)
	require.NoError(t, err)

	_, err = f.sales.Validate(f.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	riceAvail, err := f.store.TotalAvailable(f.ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), riceAvail, "rice must not be debited by the failed validation")

	got, err := f.sales.GetByID(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusDraft, got.Status)
}

func TestValidate_SameProductOnTwoLinesCheckedTogether(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 8)

	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Moussa Traoré",
		Lines: []sale.LineInput{
			{ProductID: p.ID, Quantity: 5},
			{ProductID: p.ID, Quantity: 4},
		},
	})
	require.NoError(t, err)

	_, err = f.sales.Validate(f.ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	avail, err := f.store.TotalAvailable(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), avail)
}

func TestValidate_EmitsStockoutAlert(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 5)

	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = f.sales.Validate(f.ctx, doc.ID)
	require.NoError(t, err)

	list, err := f.alertSvc.List(f.ctx, alerts.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alerts.TypeStockout, list[0].Type)
}

func TestCancel_ValidatedRestoresStockAndVoidsInvoice(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 10)

	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	doc, err = f.sales.Validate(f.ctx, doc.ID)
	require.NoError(t, err)

	// Payments already recorded do not shield the invoice.
	inv, err := f.invoiceRepo.GetBySaleID(f.ctx, doc.ID)
	require.NoError(t, err)
	_, err = f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: inv.Total, Method: billing.MethodCash,
	})
	require.NoError(t, err)

	doc, err = f.sales.Cancel(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, doc.Status)

	total, err := f.store.TotalAvailable(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	inv, err = f.invoiceRepo.GetBySaleID(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelled, inv.Status)
}

func TestCancel_DraftJustFlipsStatus(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 10)

	doc, err := f.sales.Create(f.ctx, sale.CreateInput{
		CustomerName: "Aminata Diallo",
		Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	doc, err = f.sales.Cancel(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, doc.Status)

	total, err := f.store.TotalAvailable(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", "350")
	f.stock(t, p.ID, 100)

	newSale := func(t *testing.T) *sale.Sale {
		doc, err := f.sales.Create(f.ctx, sale.CreateInput{
			CustomerName: "Aminata Diallo",
			Lines:        []sale.LineInput{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		return doc
	}

	t.Run("draft cannot be delivered", func(t *testing.T) {
		doc := newSale(t)
		_, err := f.sales.MarkDelivered(f.ctx, doc.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("validated cannot be validated again", func(t *testing.T) {
		doc := newSale(t)
		_, err := f.sales.Validate(f.ctx, doc.ID)
		require.NoError(t, err)
		_, err = f.sales.Validate(f.ctx, doc.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("delivered is final", func(t *testing.T) {
		doc := newSale(t)
		_, err := f.sales.Validate(f.ctx, doc.ID)
		require.NoError(t, err)
		_, err = f.sales.MarkDelivered(f.ctx, doc.ID)
		require.NoError(t, err)

		_, err = f.sales.Cancel(f.ctx, doc.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("cancelled is final", func(t *testing.T) {
		doc := newSale(t)
		_, err := f.sales.Cancel(f.ctx, doc.ID)
		require.NoError(t, err)
		_, err = f.sales.Validate(f.ctx, doc.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})
}
