package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/clock"
	"comptoir/internal/core/id"
	"comptoir/internal/core/types"
	"comptoir/internal/domain/billing"
	"comptoir/internal/infrastructure/storage/memory"
	"comptoir/pkg/numerator"
)

type fixture struct {
	ctx    context.Context
	clk    *clock.Fixed
	ledger *billing.Ledger
}

func newFixture() *fixture {
	clk := clock.NewFixed(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	ledger := billing.NewLedger(
		memory.NewInvoiceRepository(),
		memory.NewPaymentRepository(),
		numerator.NewMemory(),
		clk,
		memory.NewTxManager(),
	)
	return &fixture{ctx: context.Background(), clk: clk, ledger: ledger}
}

func (f *fixture) customerInvoice(t *testing.T, total string) *billing.Invoice {
	t.Helper()
	inv, err := f.ledger.IssueCustomerInvoice(f.ctx, id.New(), types.MustMoney(total))
	require.NoError(t, err)
	return inv
}

func TestStatusFor(t *testing.T) {
	pay := func(amounts ...string) []*billing.Payment {
		var payments []*billing.Payment
		for _, a := range amounts {
			payments = append(payments, &billing.Payment{Amount: types.MustMoney(a)})
		}
		return payments
	}

	tests := []struct {
		name     string
		total    string
		payments []*billing.Payment
		want     billing.InvoiceStatus
	}{
		{"no payments", "1000", nil, billing.StatusUnpaid},
		{"partial", "1000", pay("400"), billing.StatusPartiallyPaid},
		{"exact", "1000", pay("400", "600"), billing.StatusPaid},
		{"sub-cent residue settles", "1000", pay("999.999"), billing.StatusPaid},
		{"one cent residue does not", "1000", pay("999.99"), billing.StatusPartiallyPaid},
		{"zero total", "0", nil, billing.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.StatusFor(types.MustMoney(tt.total), tt.payments)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIssueCustomerInvoice(t *testing.T) {
	f := newFixture()
	saleID := id.New()

	inv, err := f.ledger.IssueCustomerInvoice(f.ctx, saleID, types.MustMoney("826.004"))
	require.NoError(t, err)

	assert.Equal(t, "F-2026-00001", inv.Number)
	assert.Equal(t, billing.KindCustomer, inv.Kind)
	require.NotNil(t, inv.SaleID)
	assert.Equal(t, saleID, *inv.SaleID)
	assert.True(t, inv.Total.Equal(types.MustMoney("826.00")))
	assert.Equal(t, billing.StatusUnpaid, inv.Status)
	assert.Equal(t, f.clk.Now(), inv.IssueDate)
	assert.Equal(t, f.clk.Now().AddDate(0, 0, 30), inv.DueDate)
}

func TestIssueSupplierInvoice(t *testing.T) {
	f := newFixture()
	orderID := id.New()

	inv, err := f.ledger.IssueSupplierInvoice(f.ctx, orderID, types.MustMoney("300"))
	require.NoError(t, err)

	assert.Equal(t, "FF-2026-00001", inv.Number)
	assert.Equal(t, billing.KindSupplier, inv.Kind)
	require.NotNil(t, inv.PurchaseOrderID)
	assert.Equal(t, orderID, *inv.PurchaseOrderID)
	assert.Nil(t, inv.SaleID)
}

func TestRecordPayment_PartialThenSettled(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "1000")

	p1, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("400"), Method: billing.MethodCash,
	})
	require.NoError(t, err)
	assert.True(t, p1.Amount.Equal(types.MustMoney("400")))

	got, err := f.ledger.GetByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaid, got.Status)

	remaining, err := f.ledger.RemainingBalance(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(types.MustMoney("600")))

	_, err = f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("600"), Method: billing.MethodTransfer,
	})
	require.NoError(t, err)

	got, err = f.ledger.GetByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, got.Status)
}

func TestRecordPayment_KeepsGivenDate(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "1000")

	paidAt := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	p, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID,
		Amount:    types.MustMoney("400"),
		Date:      paidAt,
		Method:    billing.MethodCheque,
		Reference: "CHQ-5512",
	})
	require.NoError(t, err)

	assert.Equal(t, paidAt, p.PaidAt)
	assert.Equal(t, f.clk.Now(), p.CreatedAt)
}

func TestRecordPayment_DefaultsDateToNow(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "1000")

	p, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("400"), Method: billing.MethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, f.clk.Now(), p.PaidAt)
}

func TestRecordPayment_BumpsNearExactAmount(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "1000")

	// 0.50 short of the balance: rounded up to the exact remainder.
	p, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("999.50"), Method: billing.MethodCash,
	})
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(types.MustMoney("1000")), "got %s", p.Amount)

	got, err := f.ledger.GetByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, got.Status)
}

func TestRecordPayment_FullUnitShortIsNotBumped(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "1000")

	p, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("999.00"), Method: billing.MethodCash,
	})
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(types.MustMoney("999.00")))

	got, err := f.ledger.GetByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaid, got.Status)

	remaining, err := f.ledger.RemainingBalance(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(types.MustMoney("1.00")))
}

func TestRecordPayment_RejectsOverpayment(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "1000")

	_, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("1000.01"), Method: billing.MethodCash,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePaymentExceedsBalance))

	// Nothing was recorded.
	payments, err := f.ledger.Payments(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestRecordPayment_RejectsSettledInvoice(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "100")

	_, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("100"), Method: billing.MethodCard,
	})
	require.NoError(t, err)

	_, err = f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("1"), Method: billing.MethodCard,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}

func TestRecordPayment_RejectsCancelledInvoice(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "100")

	_, err := f.ledger.Cancel(f.ctx, inv.ID)
	require.NoError(t, err)

	_, err = f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("50"), Method: billing.MethodCash,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}

func TestRecordPayment_RejectsUnknownMethod(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "100")

	_, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("50"), Method: "Barter",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCancel_IsIdempotentAndKeepsPayments(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "500")

	_, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("200"), Method: billing.MethodCheque,
	})
	require.NoError(t, err)

	got, err := f.ledger.Cancel(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelled, got.Status)

	got, err = f.ledger.Cancel(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelled, got.Status)

	payments, err := f.ledger.Payments(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestCancelBySale(t *testing.T) {
	f := newFixture()
	saleID := id.New()

	inv, err := f.ledger.IssueCustomerInvoice(f.ctx, saleID, types.MustMoney("100"))
	require.NoError(t, err)

	require.NoError(t, f.ledger.CancelBySale(f.ctx, saleID))

	got, err := f.ledger.GetByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelled, got.Status)

	// No invoice for the sale is not an error.
	require.NoError(t, f.ledger.CancelBySale(f.ctx, id.New()))
}

func TestIsOverdue(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "100")

	assert.False(t, inv.IsOverdue(f.clk.Now()))
	assert.True(t, inv.IsOverdue(f.clk.Now().AddDate(0, 0, 31)))

	inv.Status = billing.StatusPaid
	assert.False(t, inv.IsOverdue(f.clk.Now().AddDate(0, 0, 31)))
}

func TestPaymentsBetween(t *testing.T) {
	f := newFixture()
	inv := f.customerInvoice(t, "1000")

	start := f.clk.Now()
	_, err := f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("100"), Method: billing.MethodCash,
	})
	require.NoError(t, err)

	f.clk.Advance(48 * time.Hour)
	_, err = f.ledger.RecordPayment(f.ctx, billing.RecordPaymentInput{
		InvoiceID: inv.ID, Amount: types.MustMoney("200"), Method: billing.MethodCash,
	})
	require.NoError(t, err)

	payments, err := f.ledger.PaymentsBetween(f.ctx, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(types.MustMoney("100")))
}
