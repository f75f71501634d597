package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/domain/catalogs/warehouse"
)

const (
	productTable   = "cat_products"
	warehouseTable = "cat_warehouses"
)

var productColumns = []string{
	"id", "version", "created_at", "updated_at",
	"code", "name", "description",
	"purchase_price", "sale_price", "reorder_threshold", "perishable",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewProductRepo creates a product repository.
func NewProductRepo(txm *TxManager) *ProductRepo {
	return &ProductRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productTable).
		Columns(productColumns...).
		Values(
			p.ID, p.Version, p.CreatedAt, p.UpdatedAt,
			p.Code, p.Name, p.Description,
			p.PurchasePrice, p.SalePrice, p.ReorderThreshold, p.Perishable,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("product code already exists").WithDetail("code", p.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getBy(ctx, squirrel.Eq{"id": productID}, productID.String())
}

func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return r.getBy(ctx, squirrel.Eq{"code": code}, code)
}

func (r *ProductRepo) getBy(ctx context.Context, pred any, key string) (*product.Product, error) {
	sql, args, err := r.builder.Select(productColumns...).
		From(productTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productTable).
		Set("version", p.Version+1).
		Set("updated_at", p.UpdatedAt).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("purchase_price", p.PurchasePrice).
		Set("sale_price", p.SalePrice).
		Set("reorder_threshold", p.ReorderThreshold).
		Set("perishable", p.Perishable).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("product was modified concurrently").
			WithDetail("id", p.ID.String())
	}
	p.Version++
	return nil
}

func (r *ProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	filter.Normalize()

	base := r.builder.Select(productColumns...).From(productTable)
	count := r.builder.Select("COUNT(*)").From(productTable)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		cond := squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		}
		base = base.Where(cond)
		count = count.Where(cond)
	}

	var result domain.ListResult[*product.Product]

	sql, args, err := count.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	sql, args, err = base.
		OrderBy("code").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select products: %w", err)
	}
	result.Limit = filter.Limit
	result.Offset = filter.Offset
	return result, nil
}

func (r *ProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	sql, args, err := r.builder.Select("1").
		From(productTable).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return true, nil
}

var warehouseColumns = []string{
	"id", "version", "created_at", "updated_at",
	"code", "name", "address",
	"capacity", "is_returns", "is_active",
}

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewWarehouseRepo creates a warehouse repository.
func NewWarehouseRepo(txm *TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *WarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	q := r.builder.Insert(warehouseTable).
		Columns(warehouseColumns...).
		Values(
			w.ID, w.Version, w.CreatedAt, w.UpdatedAt,
			w.Code, w.Name, w.Address,
			w.Capacity, w.IsReturns, w.IsActive,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("warehouse code already exists").WithDetail("code", w.Code)
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return r.getBy(ctx, squirrel.Eq{"id": warehouseID}, warehouseID.String(), false)
}

func (r *WarehouseRepo) GetByCode(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	return r.getBy(ctx, squirrel.Eq{"code": code}, code, false)
}

// GetForUpdate locks the warehouse row. The capacity check-then-insert
// sequence in the lot store serializes on this lock.
func (r *WarehouseRepo) GetForUpdate(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return r.getBy(ctx, squirrel.Eq{"id": warehouseID}, warehouseID.String(), true)
}

func (r *WarehouseRepo) GetReturns(ctx context.Context) (*warehouse.Warehouse, error) {
	return r.getBy(ctx, squirrel.Eq{"is_returns": true}, "returns", false)
}

func (r *WarehouseRepo) getBy(ctx context.Context, pred any, key string, forUpdate bool) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).
		From(warehouseTable).
		Where(pred)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", key)
		}
		return nil, fmt.Errorf("select warehouse: %w", err)
	}
	return &w, nil
}

func (r *WarehouseRepo) Update(ctx context.Context, w *warehouse.Warehouse) error {
	q := r.builder.Update(warehouseTable).
		Set("version", w.Version+1).
		Set("updated_at", w.UpdatedAt).
		Set("name", w.Name).
		Set("address", w.Address).
		Set("capacity", w.Capacity).
		Set("is_returns", w.IsReturns).
		Set("is_active", w.IsActive).
		Where(squirrel.Eq{"id": w.ID, "version": w.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("warehouse was modified concurrently").
			WithDetail("id", w.ID.String())
	}
	w.Version++
	return nil
}

func (r *WarehouseRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*warehouse.Warehouse], error) {
	filter.Normalize()

	base := r.builder.Select(warehouseColumns...).From(warehouseTable)
	count := r.builder.Select("COUNT(*)").From(warehouseTable)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		cond := squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		}
		base = base.Where(cond)
		count = count.Where(cond)
	}

	var result domain.ListResult[*warehouse.Warehouse]

	sql, args, err := count.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count warehouses: %w", err)
	}

	sql, args, err = base.
		OrderBy("code").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select warehouses: %w", err)
	}
	result.Limit = filter.Limit
	result.Offset = filter.Offset
	return result, nil
}
