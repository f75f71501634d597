package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/lots"
)

const lotTable = "stock_lots"

var lotColumns = []string{
	"id", "version", "created_at", "updated_at",
	"product_id", "warehouse_id", "quantity", "location",
	"entry_date", "batch_number", "expiry_date", "status",
}

// LotRepo implements lots.Repository.
type LotRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewLotRepo creates a lot repository.
func NewLotRepo(txm *TxManager) *LotRepo {
	return &LotRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *LotRepo) Create(ctx context.Context, lot *lots.Lot) error {
	q := r.builder.Insert(lotTable).
		Columns(lotColumns...).
		Values(
			lot.ID, lot.Version, lot.CreatedAt, lot.UpdatedAt,
			lot.ProductID, lot.WarehouseID, lot.Quantity, lot.Location,
			lot.EntryDate, lot.BatchNumber, lot.ExpiryDate, lot.Status,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (r *LotRepo) GetByID(ctx context.Context, lotID id.ID) (*lots.Lot, error) {
	return r.get(ctx, lotID, false)
}

// GetForUpdate locks the lot row until the transaction ends.
func (r *LotRepo) GetForUpdate(ctx context.Context, lotID id.ID) (*lots.Lot, error) {
	return r.get(ctx, lotID, true)
}

func (r *LotRepo) get(ctx context.Context, lotID id.ID, forUpdate bool) (*lots.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotTable).
		Where(squirrel.Eq{"id": lotID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot lots.Lot
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", lotID.String())
		}
		return nil, fmt.Errorf("select lot: %w", err)
	}
	return &lot, nil
}

func (r *LotRepo) Update(ctx context.Context, lot *lots.Lot) error {
	q := r.builder.Update(lotTable).
		Set("version", lot.Version+1).
		Set("updated_at", lot.UpdatedAt).
		Set("quantity", lot.Quantity).
		Set("location", lot.Location).
		Set("expiry_date", lot.ExpiryDate).
		Set("status", lot.Status).
		Where(squirrel.Eq{"id": lot.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lot.ID.String())
	}
	lot.Version++
	return nil
}

func (r *LotRepo) Delete(ctx context.Context, lotID id.ID) error {
	sql, args, err := r.builder.Delete(lotTable).
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID.String())
	}
	return nil
}

// ListAvailableForUpdate returns the allocation candidates: Available
// lots holding quantity, oldest entry first with id as tie-break, all
// rows locked.
func (r *LotRepo) ListAvailableForUpdate(ctx context.Context, productID id.ID) ([]*lots.Lot, error) {
	sql, args, err := r.builder.Select(lotColumns...).
		From(lotTable).
		Where(squirrel.Eq{"product_id": productID, "status": lots.StatusAvailable}).
		Where(squirrel.Gt{"quantity": 0}).
		OrderBy("entry_date ASC", "id ASC").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*lots.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select available lots: %w", err)
	}
	return result, nil
}

func (r *LotRepo) NewestAvailableForUpdate(ctx context.Context, productID id.ID) (*lots.Lot, error) {
	sql, args, err := r.builder.Select(lotColumns...).
		From(lotTable).
		Where(squirrel.Eq{"product_id": productID, "status": lots.StatusAvailable}).
		OrderBy("entry_date DESC", "id DESC").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot lots.Lot
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select newest lot: %w", err)
	}
	return &lot, nil
}

func (r *LotRepo) TotalAvailable(ctx context.Context, productID id.ID) (int64, error) {
	sql, args, err := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(lotTable).
		Where(squirrel.Eq{"product_id": productID, "status": lots.StatusAvailable}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum available: %w", err)
	}
	return total, nil
}

func (r *LotRepo) SumQuantities(ctx context.Context, warehouseID id.ID) (int64, error) {
	sql, args, err := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(lotTable).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum warehouse quantities: %w", err)
	}
	return total, nil
}

func (r *LotRepo) ListExpired(ctx context.Context, now time.Time) ([]*lots.Lot, error) {
	sql, args, err := r.builder.Select(lotColumns...).
		From(lotTable).
		Where(squirrel.NotEq{"status": lots.StatusExpired}).
		Where(squirrel.NotEq{"expiry_date": nil}).
		Where(squirrel.Lt{"expiry_date": now}).
		OrderBy("entry_date ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*lots.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select expired lots: %w", err)
	}
	return result, nil
}

func (r *LotRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*lots.Lot, error) {
	sql, args, err := r.builder.Select(lotColumns...).
		From(lotTable).
		Where(squirrel.NotEq{"status": lots.StatusExpired}).
		Where(squirrel.GtOrEq{"expiry_date": from}).
		Where(squirrel.LtOrEq{"expiry_date": to}).
		OrderBy("entry_date ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*lots.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select expiring lots: %w", err)
	}
	return result, nil
}

func (r *LotRepo) List(ctx context.Context, filter lots.Filter) ([]*lots.Lot, error) {
	q := r.builder.Select(lotColumns...).From(lotTable)
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	q = q.OrderBy("entry_date ASC", "id ASC")
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

	var result []*lots.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}
	return result, nil
}
