package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comptoir/internal/core/clock"
	"comptoir/internal/core/id"
	"comptoir/internal/domain/alerts"
	"comptoir/internal/infrastructure/storage/memory"
)

func newAlertService() (*alerts.Service, *memory.AlertRepository) {
	repo := memory.NewAlertRepository()
	clk := clock.NewFixed(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	return alerts.NewService(repo, clk), repo
}

func TestEmit_DeduplicatesUnread(t *testing.T) {
	svc, _ := newAlertService()
	ctx := context.Background()
	productID := id.New()

	require.NoError(t, svc.Emit(ctx, alerts.TypeStockout, productID, "Product Rice is out of stock"))
	require.NoError(t, svc.Emit(ctx, alerts.TypeStockout, productID, "Product Rice is out of stock"))

	list, err := svc.List(ctx, alerts.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEmit_DifferentMessageIsNewAlert(t *testing.T) {
	svc, _ := newAlertService()
	ctx := context.Background()
	productID := id.New()

	require.NoError(t, svc.Emit(ctx, alerts.TypeLowStock, productID, "Product Rice is below its reorder threshold (3 left)"))
	require.NoError(t, svc.Emit(ctx, alerts.TypeLowStock, productID, "Product Rice is below its reorder threshold (2 left)"))

	list, err := svc.List(ctx, alerts.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEmit_ReadAlertReenablesEmission(t *testing.T) {
	svc, _ := newAlertService()
	ctx := context.Background()
	productID := id.New()

	require.NoError(t, svc.Emit(ctx, alerts.TypeExpiry, productID, "Lot LOT-2026-00001 of product Milk is expired"))

	list, err := svc.List(ctx, alerts.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, svc.MarkRead(ctx, list[0].ID))

	require.NoError(t, svc.Emit(ctx, alerts.TypeExpiry, productID, "Lot LOT-2026-00001 of product Milk is expired"))

	list, err = svc.List(ctx, alerts.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestList_Filters(t *testing.T) {
	svc, _ := newAlertService()
	ctx := context.Background()
	p1, p2 := id.New(), id.New()

	require.NoError(t, svc.Emit(ctx, alerts.TypeStockout, p1, "Product A is out of stock"))
	require.NoError(t, svc.Emit(ctx, alerts.TypeLowStock, p2, "Product B is below its reorder threshold (1 left)"))

	stockout := alerts.TypeStockout
	list, err := svc.List(ctx, alerts.Filter{Type: &stockout})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p1, list[0].ProductID)

	list, err = svc.List(ctx, alerts.Filter{ProductID: &p2})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alerts.TypeLowStock, list[0].Type)

	require.NoError(t, svc.MarkRead(ctx, list[0].ID))
	list, err = svc.List(ctx, alerts.Filter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p1, list[0].ProductID)
}
