package billing

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
	"comptoir/pkg/logger"
	"comptoir/pkg/numerator"
)

// Payment terms: invoices fall due 30 days after issue.
const dueDays = 30

// Ledger issues invoices and records payments against them.
type Ledger struct {
	invoices  InvoiceRepository
	payments  PaymentRepository
	numerator numerator.Generator
	clock     clock.Clock
	txManager tx.Manager
}

// NewLedger creates a billing ledger.
func NewLedger(
	invoices InvoiceRepository,
	payments PaymentRepository,
	gen numerator.Generator,
	clk clock.Clock,
	txManager tx.Manager,
) *Ledger {
	return &Ledger{
		invoices:  invoices,
		payments:  payments,
		numerator: gen,
		clock:     clk,
		txManager: txManager,
	}
}

// IssueCustomerInvoice creates an Unpaid invoice for a validated sale.
func (l *Ledger) IssueCustomerInvoice(ctx context.Context, saleID id.ID, total types.Money) (*Invoice, error) {
	return l.issue(ctx, KindCustomer, "F", &saleID, nil, total)
}

// IssueSupplierInvoice creates an Unpaid invoice for a received
// purchase order.
func (l *Ledger) IssueSupplierInvoice(ctx context.Context, orderID id.ID, total types.Money) (*Invoice, error) {
	return l.issue(ctx, KindSupplier, "FF", nil, &orderID, total)
}

func (l *Ledger) issue(ctx context.Context, kind InvoiceKind, prefix string, saleID, orderID *id.ID, total types.Money) (*Invoice, error) {
	now := l.clock.Now()

	number, err := l.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix), nil, now)
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	inv := &Invoice{
		BaseEntity:      entity.NewBaseEntity(now),
		Number:          number,
		Kind:            kind,
		SaleID:          saleID,
		PurchaseOrderID: orderID,
		Total:           types.Round2(total),
		Status:          StatusUnpaid,
		IssueDate:       now,
		DueDate:         now.AddDate(0, 0, dueDays),
	}

	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}
	if err := l.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	logger.Info(ctx, "invoice issued",
		"id", inv.ID,
		"number", inv.Number,
		"kind", inv.Kind,
		"total", inv.Total,
	)

	return inv, nil
}

// RecordPaymentInput describes a payment to record. A zero Date means
// the payment is dated now.
type RecordPaymentInput struct {
	InvoiceID id.ID
	Amount    types.Money
	Date      time.Time
	Method    PaymentMethod
	Reference string
}

// RecordPayment appends a payment to the invoice and recomputes its
// status. The invoice row is locked for the whole sequence so
// concurrent payments serialize and cannot jointly overpay.
//
// The amount is rounded to the cent first. An amount above the
// remaining balance is rejected. When it falls short of the balance by
// less than one currency unit, it is bumped up to the exact balance so
// the invoice settles instead of lingering with a dust residue.
func (l *Ledger) RecordPayment(ctx context.Context, in RecordPaymentInput) (*Payment, error) {
	if !in.Method.IsValid() {
		return nil, apperror.NewValidation("invalid payment method").
			WithDetail("method", string(in.Method))
	}
	amount := types.Round2(in.Amount)
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}

	var payment *Payment
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := l.invoices.GetForUpdate(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot pay a cancelled invoice").
				WithDetail("invoice_id", inv.ID.String())
		}
		if inv.Status == StatusPaid {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "invoice is already settled").
				WithDetail("invoice_id", inv.ID.String())
		}

		existing, err := l.payments.ListByInvoice(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}

		remaining := Remaining(inv.Total, existing)
		if amount.GreaterThan(remaining) {
			return apperror.NewPaymentExceedsBalance(inv.ID.String(), amount.String(), remaining.String())
		}
		if remaining.Sub(amount).LessThan(types.PaymentEpsilon) {
			amount = remaining
		}

		now := l.clock.Now()
		paidAt := in.Date
		if paidAt.IsZero() {
			paidAt = now
		}
		payment = &Payment{
			ID:        id.New(),
			InvoiceID: inv.ID,
			Amount:    amount,
			Method:    in.Method,
			Reference: in.Reference,
			PaidAt:    paidAt,
			CreatedAt: now,
		}
		if err := l.payments.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		inv.Status = StatusFor(inv.Total, append(existing, payment))
		inv.Touch(now)
		return l.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"invoice_id", in.InvoiceID,
		"amount", payment.Amount,
		"method", payment.Method,
	)

	return payment, nil
}

// RemainingBalance returns how much is still owed on the invoice.
func (l *Ledger) RemainingBalance(ctx context.Context, invoiceID id.ID) (types.Money, error) {
	inv, err := l.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return types.Money{}, err
	}
	payments, err := l.payments.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return types.Money{}, fmt.Errorf("list payments: %w", err)
	}
	return Remaining(inv.Total, payments), nil
}

// Cancel voids the invoice unconditionally. Recorded payments stay in
// the ledger; refunds are handled out of band.
func (l *Ledger) Cancel(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	var inv *Invoice
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = l.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return nil
		}
		inv.Status = StatusCancelled
		inv.Touch(l.clock.Now())
		return l.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice cancelled", "id", inv.ID, "number", inv.Number)
	return inv, nil
}

// CancelBySale voids the invoice attached to a sale, if any.
func (l *Ledger) CancelBySale(ctx context.Context, saleID id.ID) error {
	inv, err := l.invoices.GetBySaleID(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	_, err = l.Cancel(ctx, inv.ID)
	return err
}

// GetByID retrieves an invoice.
func (l *Ledger) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return l.invoices.GetByID(ctx, invoiceID)
}

// List retrieves invoices with filtering.
func (l *Ledger) List(ctx context.Context, filter InvoiceFilter) ([]*Invoice, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return l.invoices.List(ctx, filter)
}

// Payments returns the ledger entries of an invoice.
func (l *Ledger) Payments(ctx context.Context, invoiceID id.ID) ([]*Payment, error) {
	if _, err := l.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return l.payments.ListByInvoice(ctx, invoiceID)
}

// PaymentsBetween returns payments recorded in [from, to], for cash
// flow reporting.
func (l *Ledger) PaymentsBetween(ctx context.Context, from, to time.Time) ([]*Payment, error) {
	return l.payments.ListBetween(ctx, from, to)
}
