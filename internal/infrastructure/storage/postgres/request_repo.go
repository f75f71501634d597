package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/requests"
)

const (
	requestTable     = "doc_replenishment_requests"
	requestLineTable = "doc_replenishment_request_lines"
)

var requestColumns = []string{
	"id", "version", "created_at", "updated_at",
	"number", "date", "comment",
	"reason", "priority", "status", "processed_at", "processing_note",
}

var requestLineColumns = []string{
	"id", "request_id", "product_id",
	"quantity_requested", "quantity_on_hand", "reorder_threshold", "justification",
}

// RequestRepo implements requests.Repository.
type RequestRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewRequestRepo creates a replenishment request repository.
func NewRequestRepo(txm *TxManager) *RequestRepo {
	return &RequestRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *RequestRepo) Create(ctx context.Context, req *requests.Request) error {
	q := r.builder.Insert(requestTable).
		Columns(requestColumns...).
		Values(
			req.ID, req.Version, req.CreatedAt, req.UpdatedAt,
			req.Number, req.Date, req.Comment,
			req.Reason, req.Priority, req.Status, req.ProcessedAt, req.ProcessingNote,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert replenishment request: %w", err)
	}

	if len(req.Lines) == 0 {
		return nil
	}
	lq := r.builder.Insert(requestLineTable).Columns(requestLineColumns...)
	for _, ln := range req.Lines {
		lq = lq.Values(
			ln.ID, req.ID, ln.ProductID,
			ln.QuantityRequested, ln.QuantityOnHand, ln.ReorderThreshold, ln.Justification,
		)
	}
	sql, args, err = lq.ToSql()
	if err != nil {
		return fmt.Errorf("build lines insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert request lines: %w", err)
	}
	return nil
}

func (r *RequestRepo) GetByID(ctx context.Context, requestID id.ID) (*requests.Request, error) {
	return r.get(ctx, requestID, false)
}

// GetForUpdate locks the request row so concurrent workflow steps on
// the same request serialize.
func (r *RequestRepo) GetForUpdate(ctx context.Context, requestID id.ID) (*requests.Request, error) {
	return r.get(ctx, requestID, true)
}

func (r *RequestRepo) get(ctx context.Context, requestID id.ID, forUpdate bool) (*requests.Request, error) {
	q := r.builder.Select(requestColumns...).
		From(requestTable).
		Where(squirrel.Eq{"id": requestID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var req requests.Request
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &req, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("replenishment request", requestID.String())
		}
		return nil, fmt.Errorf("select replenishment request: %w", err)
	}

	if err := r.loadLines(ctx, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepo) loadLines(ctx context.Context, req *requests.Request) error {
	sql, args, err := r.builder.Select(requestLineColumns...).
		From(requestLineTable).
		Where(squirrel.Eq{"request_id": req.ID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &req.Lines, sql, args...); err != nil {
		return fmt.Errorf("select request lines: %w", err)
	}
	return nil
}

func (r *RequestRepo) Update(ctx context.Context, req *requests.Request) error {
	q := r.builder.Update(requestTable).
		Set("version", req.Version+1).
		Set("updated_at", req.UpdatedAt).
		Set("comment", req.Comment).
		Set("reason", req.Reason).
		Set("priority", req.Priority).
		Set("status", req.Status).
		Set("processed_at", req.ProcessedAt).
		Set("processing_note", req.ProcessingNote).
		Where(squirrel.Eq{"id": req.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update replenishment request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("replenishment request", req.ID.String())
	}
	req.Version++
	return nil
}

func (r *RequestRepo) List(ctx context.Context, filter requests.Filter) ([]*requests.Request, error) {
	q := r.builder.Select(requestColumns...).From(requestTable)
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Priority != "" {
		q = q.Where(squirrel.Eq{"priority": filter.Priority})
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

	var result []*requests.Request
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select replenishment requests: %w", err)
	}
	for _, req := range result {
		if err := r.loadLines(ctx, req); err != nil {
			return nil, err
		}
	}
	return result, nil
}
