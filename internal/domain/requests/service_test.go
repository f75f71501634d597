package requests_test

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
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
	"comptoir/internal/domain/lots"
	"comptoir/internal/domain/requests"
	"comptoir/internal/infrastructure/storage/memory"
	"comptoir/pkg/numerator"
)

type fixture struct {
	ctx         context.Context
	clk         *clock.Fixed
	service     *requests.Service
	store       *lots.Store
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
	txm := memory.NewTxManager()
	gen := numerator.NewMemory()

	alertSvc := alerts.NewService(memory.NewAlertRepository(), clk)
	store := lots.NewStore(lotRepo, warehouseRepo, productRepo, alertSvc, gen, clk, txm)
	service := requests.NewService(memory.NewRequestRepository(), productRepo, store, gen, clk, txm)

	wh := warehouse.New("WH-001", "Central", clk.Now())
	require.NoError(t, warehouseRepo.Create(context.Background(), wh))

	return &fixture{
		ctx:         context.Background(),
		clk:         clk,
		service:     service,
		store:       store,
		productRepo: productRepo,
		warehouse:   wh,
	}
}

func (f *fixture) product(t *testing.T, name string, threshold int64) *product.Product {
	t.Helper()
	f.seq++
	p := product.New(fmt.Sprintf("PRD-%03d", f.seq), name, f.clk.Now())
	p.PurchasePrice = types.MustMoney("50")
	p.SalePrice = types.MustMoney("100")
	p.ReorderThreshold = threshold
	require.NoError(t, f.productRepo.Create(f.ctx, p))
	return p
}

func (f *fixture) stock(t *testing.T, productID id.ID, qty int64) {
	t.Helper()
	_, err := f.store.CreateLot(f.ctx, lots.CreateLotInput{
		ProductID:   productID,
		WarehouseID: f.warehouse.ID,
		Quantity:    qty,
	})
	require.NoError(t, err)
	f.clk.Advance(time.Minute)
}

func (f *fixture) draft(t *testing.T, p *product.Product, qty int64) *requests.Request {
	t.Helper()
	req, err := f.service.Create(f.ctx, requests.CreateInput{
		Reason: "Low stock",
		Lines:  []requests.LineInput{{ProductID: p.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	return req
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 20)
	f.stock(t, p.ID, 12)

	req, err := f.service.Create(f.ctx, requests.CreateInput{
		Reason:   "Below reorder threshold",
		Priority: requests.PriorityUrgent,
		Lines: []requests.LineInput{
			{ProductID: p.ID, Quantity: 40, Justification: "promotion next week"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "DA-2026-00001", req.Number)
	assert.Equal(t, requests.StatusDraft, req.Status)
	assert.Equal(t, requests.PriorityUrgent, req.Priority)
	require.Len(t, req.Lines, 1)

	// The line snapshots the stock situation at drafting time.
	ln := req.Lines[0]
	assert.Equal(t, int64(40), ln.QuantityRequested)
	assert.Equal(t, int64(12), ln.QuantityOnHand)
	assert.Equal(t, int64(20), ln.ReorderThreshold)
	assert.Equal(t, "promotion next week", ln.Justification)
}

func TestCreate_DefaultsPriorityToNormal(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 0)

	req := f.draft(t, p, 5)
	assert.Equal(t, requests.PriorityNormal, req.Priority)
}

func TestCreate_RequiresLines(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(f.ctx, requests.CreateInput{Reason: "nothing"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreate_RejectsUnknownPriority(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 0)

	_, err := f.service.Create(f.ctx, requests.CreateInput{
		Priority: "Whenever",
		Lines:    []requests.LineInput{{ProductID: p.ID, Quantity: 5}},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreate_RejectsUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(f.ctx, requests.CreateInput{
		Lines: []requests.LineInput{{ProductID: id.New(), Quantity: 5}},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestWorkflow_SubmitTakeProcess(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 10)
	req := f.draft(t, p, 30)

	req, err := f.service.Submit(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusSent, req.Status)

	req, err = f.service.Take(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusInProgress, req.Status)

	f.clk.Advance(time.Hour)
	req, err = f.service.Process(f.ctx, req.ID, "ordered from Sahel Distribution")
	require.NoError(t, err)
	assert.Equal(t, requests.StatusProcessed, req.Status)
	require.NotNil(t, req.ProcessedAt)
	assert.Equal(t, f.clk.Now(), *req.ProcessedAt)
	assert.Equal(t, "ordered from Sahel Distribution", req.ProcessingNote)
}

func TestProcess_StraightFromSent(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 10)
	req := f.draft(t, p, 30)

	_, err := f.service.Submit(f.ctx, req.ID)
	require.NoError(t, err)

	req, err = f.service.Process(f.ctx, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, requests.StatusProcessed, req.Status)
	require.NotNil(t, req.ProcessedAt)
}

func TestReject_RequiresNote(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 10)
	req := f.draft(t, p, 30)

	_, err := f.service.Submit(f.ctx, req.ID)
	require.NoError(t, err)

	_, err = f.service.Reject(f.ctx, req.ID, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	rejected, err := f.service.Reject(f.ctx, req.ID, "budget freeze this quarter")
	require.NoError(t, err)
	assert.Equal(t, requests.StatusRejected, rejected.Status)
	assert.Equal(t, "budget freeze this quarter", rejected.ProcessingNote)
	require.NotNil(t, rejected.ProcessedAt)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 10)
	req := f.draft(t, p, 30)

	req, err := f.service.Cancel(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusCancelled, req.Status)
}

func TestTransition_FinalStatesAreFinal(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 10)
	req := f.draft(t, p, 30)

	_, err := f.service.Submit(f.ctx, req.ID)
	require.NoError(t, err)
	_, err = f.service.Process(f.ctx, req.ID, "done")
	require.NoError(t, err)

	_, err = f.service.Cancel(f.ctx, req.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	_, err = f.service.Reject(f.ctx, req.ID, "too late")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestTransition_DraftCannotBeProcessed(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 10)
	req := f.draft(t, p, 30)

	_, err := f.service.Process(f.ctx, req.ID, "skipping the queue")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestList_FiltersByStatusAndPriority(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Rice", 10)

	first := f.draft(t, p, 5)
	_, err := f.service.Submit(f.ctx, first.ID)
	require.NoError(t, err)

	_, err = f.service.Create(f.ctx, requests.CreateInput{
		Priority: requests.PriorityCritical,
		Lines:    []requests.LineInput{{ProductID: p.ID, Quantity: 8}},
	})
	require.NoError(t, err)

	sent, err := f.service.List(f.ctx, requests.Filter{Status: requests.StatusSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, first.ID, sent[0].ID)

	critical, err := f.service.List(f.ctx, requests.Filter{Priority: requests.PriorityCritical})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "DA-2026-00002", critical[0].Number)
}
