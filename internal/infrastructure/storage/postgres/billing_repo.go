package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/billing"
)

const (
	invoiceTable = "doc_invoices"
	paymentTable = "reg_payments"
)

var invoiceColumns = []string{
	"id", "version", "created_at", "updated_at",
	"number", "kind", "sale_id", "purchase_order_id",
	"total", "status", "issue_date", "due_date",
}

// InvoiceRepo implements billing.InvoiceRepository.
type InvoiceRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewInvoiceRepo creates an invoice repository.
func NewInvoiceRepo(txm *TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *billing.Invoice) error {
	q := r.builder.Insert(invoiceTable).
		Columns(invoiceColumns...).
		Values(
			inv.ID, inv.Version, inv.CreatedAt, inv.UpdatedAt,
			inv.Number, inv.Kind, inv.SaleID, inv.PurchaseOrderID,
			inv.Total, inv.Status, inv.IssueDate, inv.DueDate,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*billing.Invoice, error) {
	return r.getBy(ctx, squirrel.Eq{"id": invoiceID}, invoiceID.String(), false)
}

// GetForUpdate locks the invoice row; payment recording serializes on
// this lock.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*billing.Invoice, error) {
	return r.getBy(ctx, squirrel.Eq{"id": invoiceID}, invoiceID.String(), true)
}

func (r *InvoiceRepo) GetBySaleID(ctx context.Context, saleID id.ID) (*billing.Invoice, error) {
	return r.getBy(ctx, squirrel.Eq{"sale_id": saleID}, saleID.String(), false)
}

func (r *InvoiceRepo) getBy(ctx context.Context, pred any, key string, forUpdate bool) (*billing.Invoice, error) {
	q := r.builder.Select(invoiceColumns...).
		From(invoiceTable).
		Where(pred)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv billing.Invoice
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", key)
		}
		return nil, fmt.Errorf("select invoice: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) Update(ctx context.Context, inv *billing.Invoice) error {
	q := r.builder.Update(invoiceTable).
		Set("version", inv.Version+1).
		Set("updated_at", inv.UpdatedAt).
		Set("status", inv.Status).
		Where(squirrel.Eq{"id": inv.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("invoice", inv.ID.String())
	}
	inv.Version++
	return nil
}

func (r *InvoiceRepo) List(ctx context.Context, filter billing.InvoiceFilter) ([]*billing.Invoice, error) {
	q := r.builder.Select(invoiceColumns...).From(invoiceTable)
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	q = q.OrderBy("number")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*billing.Invoice
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	return result, nil
}

func (r *InvoiceRepo) ListUnsettled(ctx context.Context, kind billing.InvoiceKind) ([]*billing.Invoice, error) {
	sql, args, err := r.builder.Select(invoiceColumns...).
		From(invoiceTable).
		Where(squirrel.Eq{"kind": kind}).
		Where(squirrel.NotEq{"status": []billing.InvoiceStatus{billing.StatusPaid, billing.StatusCancelled}}).
		OrderBy("number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*billing.Invoice
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select unsettled invoices: %w", err)
	}
	return result, nil
}

var paymentColumns = []string{
	"id", "invoice_id", "amount", "method", "reference", "paid_at", "created_at",
}

// PaymentRepo implements billing.PaymentRepository. The table is
// append-only; there is no update or delete.
type PaymentRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewPaymentRepo creates a payment repository.
func NewPaymentRepo(txm *TxManager) *PaymentRepo {
	return &PaymentRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *PaymentRepo) Create(ctx context.Context, p *billing.Payment) error {
	q := r.builder.Insert(paymentTable).
		Columns(paymentColumns...).
		Values(p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.PaidAt, p.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*billing.Payment, error) {
	sql, args, err := r.builder.Select(paymentColumns...).
		From(paymentTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("paid_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*billing.Payment
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return result, nil
}

func (r *PaymentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*billing.Payment, error) {
	sql, args, err := r.builder.Select(paymentColumns...).
		From(paymentTable).
		Where(squirrel.GtOrEq{"paid_at": from}).
		Where(squirrel.LtOrEq{"paid_at": to}).
		OrderBy("paid_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*billing.Payment
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return result, nil
}
