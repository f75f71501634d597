package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/documents/purchase"
	"comptoir/internal/domain/documents/sale"
)

const (
	saleTable           = "doc_sales"
	saleLineTable       = "doc_sale_lines"
	saleAllocationTable = "doc_sale_allocations"
	orderTable          = "doc_purchase_orders"
	orderLineTable      = "doc_purchase_order_lines"
)

var saleColumns = []string{
	"id", "version", "created_at", "updated_at",
	"number", "date", "comment",
	"customer_name", "status", "discount", "total_pre_tax", "total_with_tax",
}

// SaleRepo implements sale.Repository. Lines and their lot allocations
// are loaded and saved together with the document.
type SaleRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewSaleRepo creates a sale repository.
func NewSaleRepo(txm *TxManager) *SaleRepo {
	return &SaleRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	q := r.builder.Insert(saleTable).
		Columns(saleColumns...).
		Values(
			s.ID, s.Version, s.CreatedAt, s.UpdatedAt,
			s.Number, s.Date, s.Comment,
			s.CustomerName, s.Status, s.Discount, s.TotalPreTax, s.TotalWithTax,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	return r.insertLines(ctx, s)
}

func (r *SaleRepo) insertLines(ctx context.Context, s *sale.Sale) error {
	if len(s.Lines) == 0 {
		return nil
	}

	q := r.builder.Insert(saleLineTable).
		Columns("id", "sale_id", "product_id", "quantity", "unit_price")
	for _, ln := range s.Lines {
		q = q.Values(ln.ID, s.ID, ln.ProductID, ln.Quantity, ln.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, saleID, false)
}

// GetForUpdate locks the sale row so lifecycle operations on the same
// document serialize.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, saleID, true)
}

func (r *SaleRepo) get(ctx context.Context, saleID id.ID, forUpdate bool) (*sale.Sale, error) {
	q := r.builder.Select(saleColumns...).
		From(saleTable).
		Where(squirrel.Eq{"id": saleID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("select sale: %w", err)
	}

	if err := r.loadLines(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) loadLines(ctx context.Context, s *sale.Sale) error {
	sql, args, err := r.builder.
		Select("id", "sale_id", "product_id", "quantity", "unit_price").
		From(saleLineTable).
		Where(squirrel.Eq{"sale_id": s.ID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &s.Lines, sql, args...); err != nil {
		return fmt.Errorf("select sale lines: %w", err)
	}

	for _, ln := range s.Lines {
		sql, args, err := r.builder.
			Select("lot_id", "quantity").
			From(saleAllocationTable).
			Where(squirrel.Eq{"line_id": ln.ID}).
			OrderBy("lot_id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build allocations query: %w", err)
		}
		if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &ln.Allocations, sql, args...); err != nil {
			return fmt.Errorf("select allocations: %w", err)
		}
	}
	return nil
}

func (r *SaleRepo) Update(ctx context.Context, s *sale.Sale) error {
	q := r.builder.Update(saleTable).
		Set("version", s.Version+1).
		Set("updated_at", s.UpdatedAt).
		Set("comment", s.Comment).
		Set("customer_name", s.CustomerName).
		Set("status", s.Status).
		Set("discount", s.Discount).
		Set("total_pre_tax", s.TotalPreTax).
		Set("total_with_tax", s.TotalWithTax).
		Where(squirrel.Eq{"id": s.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", s.ID.String())
	}
	s.Version++

	return r.saveAllocations(ctx, s)
}

// saveAllocations rewrites the line allocations, which change only at
// validation.
func (r *SaleRepo) saveAllocations(ctx context.Context, s *sale.Sale) error {
	for _, ln := range s.Lines {
		sql, args, err := r.builder.Delete(saleAllocationTable).
			Where(squirrel.Eq{"line_id": ln.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build allocations delete: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete allocations: %w", err)
		}

		if len(ln.Allocations) == 0 {
			continue
		}
		q := r.builder.Insert(saleAllocationTable).Columns("line_id", "lot_id", "quantity")
		for _, a := range ln.Allocations {
			q = q.Values(ln.ID, a.LotID, a.Quantity)
		}
		sql, args, err = q.ToSql()
		if err != nil {
			return fmt.Errorf("build allocations insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert allocations: %w", err)
		}
	}
	return nil
}

func (r *SaleRepo) List(ctx context.Context, filter sale.Filter) ([]*sale.Sale, error) {
	q := r.builder.Select(saleColumns...).From(saleTable)
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.CustomerName != "" {
		q = q.Where(squirrel.Eq{"customer_name": filter.CustomerName})
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

	var result []*sale.Sale
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	for _, s := range result {
		if err := r.loadLines(ctx, s); err != nil {
			return nil, err
		}
	}
	return result, nil
}

var orderColumns = []string{
	"id", "version", "created_at", "updated_at",
	"number", "date", "comment",
	"supplier_name", "status", "total", "expected_date",
}

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewPurchaseRepo creates a purchase order repository.
func NewPurchaseRepo(txm *TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *PurchaseRepo) Create(ctx context.Context, o *purchase.Order) error {
	q := r.builder.Insert(orderTable).
		Columns(orderColumns...).
		Values(
			o.ID, o.Version, o.CreatedAt, o.UpdatedAt,
			o.Number, o.Date, o.Comment,
			o.SupplierName, o.Status, o.Total, o.ExpectedDate,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	if len(o.Lines) == 0 {
		return nil
	}
	lq := r.builder.Insert(orderLineTable).
		Columns("id", "order_id", "product_id", "quantity", "unit_cost", "expiry_date")
	for _, ln := range o.Lines {
		lq = lq.Values(ln.ID, o.ID, ln.ProductID, ln.Quantity, ln.UnitCost, ln.ExpiryDate)
	}
	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

func (r *PurchaseRepo) GetByID(ctx context.Context, orderID id.ID) (*purchase.Order, error) {
	return r.get(ctx, orderID, false)
}

// GetForUpdate locks the order row so reception and cancellation of
// the same order serialize.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*purchase.Order, error) {
	return r.get(ctx, orderID, true)
}

func (r *PurchaseRepo) get(ctx context.Context, orderID id.ID, forUpdate bool) (*purchase.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(orderTable).
		Where(squirrel.Eq{"id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o purchase.Order
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", orderID.String())
		}
		return nil, fmt.Errorf("select purchase order: %w", err)
	}

	if err := r.loadLines(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PurchaseRepo) loadLines(ctx context.Context, o *purchase.Order) error {
	sql, args, err := r.builder.
		Select("id", "order_id", "product_id", "quantity", "unit_cost", "expiry_date").
		From(orderLineTable).
		Where(squirrel.Eq{"order_id": o.ID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &o.Lines, sql, args...); err != nil {
		return fmt.Errorf("select order lines: %w", err)
	}
	return nil
}

func (r *PurchaseRepo) Update(ctx context.Context, o *purchase.Order) error {
	q := r.builder.Update(orderTable).
		Set("version", o.Version+1).
		Set("updated_at", o.UpdatedAt).
		Set("comment", o.Comment).
		Set("supplier_name", o.SupplierName).
		Set("status", o.Status).
		Set("total", o.Total).
		Set("expected_date", o.ExpectedDate).
		Where(squirrel.Eq{"id": o.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", o.ID.String())
	}
	o.Version++
	return nil
}

func (r *PurchaseRepo) List(ctx context.Context, filter purchase.Filter) ([]*purchase.Order, error) {
	q := r.builder.Select(orderColumns...).From(orderTable)
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.SupplierName != "" {
		q = q.Where(squirrel.Eq{"supplier_name": filter.SupplierName})
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

	var result []*purchase.Order
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchase orders: %w", err)
	}
	for _, o := range result {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return result, nil
}
