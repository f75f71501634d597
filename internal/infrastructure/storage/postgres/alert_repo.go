package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"comptoir/internal/core/apperror"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/alerts"
)

const alertTable = "sys_alerts"

var alertColumns = []string{
	"id", "type", "product_id", "message", "read", "created_at",
}

// AlertRepo implements alerts.Repository.
type AlertRepo struct {
	builder squirrel.StatementBuilderType
	txm     *TxManager
}

// NewAlertRepo creates an alert repository.
func NewAlertRepo(txm *TxManager) *AlertRepo {
	return &AlertRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		txm:     txm,
	}
}

func (r *AlertRepo) Create(ctx context.Context, a *alerts.Alert) error {
	q := r.builder.Insert(alertTable).
		Columns(alertColumns...).
		Values(a.ID, a.Type, a.ProductID, a.Message, a.Read, a.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *AlertRepo) ExistsUnread(ctx context.Context, alertType alerts.Type, productID id.ID, message string) (bool, error) {
	sql, args, err := r.builder.Select("1").
		From(alertTable).
		Where(squirrel.Eq{
			"type":       alertType,
			"product_id": productID,
			"message":    message,
			"read":       false,
		}).
		Limit(1).
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
		return false, fmt.Errorf("check unread alert: %w", err)
	}
	return true, nil
}

func (r *AlertRepo) List(ctx context.Context, filter alerts.Filter) ([]alerts.Alert, error) {
	q := r.builder.Select(alertColumns...).From(alertTable)
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.UnreadOnly {
		q = q.Where(squirrel.Eq{"read": false})
	}
	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []alerts.Alert
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select alerts: %w", err)
	}
	return result, nil
}

func (r *AlertRepo) MarkRead(ctx context.Context, alertID id.ID) error {
	sql, args, err := r.builder.Update(alertTable).
		Set("read", true).
		Where(squirrel.Eq{"id": alertID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("alert", alertID.String())
	}
	return nil
}
