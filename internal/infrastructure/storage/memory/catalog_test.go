package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comptoir/internal/domain"
	"comptoir/internal/domain/catalogs/product"
	"comptoir/internal/infrastructure/storage/memory"
)

func TestProductRepository_List_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		p := product.New(fmt.Sprintf("PRD-%03d", i+1), fmt.Sprintf("Product %d", i+1), now)
		require.NoError(t, repo.Create(ctx, p))
	}

	result, err := repo.List(ctx, domain.ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)

	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(5), result.TotalCount)
	assert.Equal(t, "PRD-003", result.Items[0].Code)
	assert.Equal(t, "PRD-004", result.Items[1].Code)
}

func TestProductRepository_List_Search(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, product.New("PRD-001", "Rice 25kg", now)))
	require.NoError(t, repo.Create(ctx, product.New("PRD-002", "Sunflower oil", now)))

	result, err := repo.List(ctx, domain.ListFilter{Search: "rice"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.TotalCount)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Rice 25kg", result.Items[0].Name)
}
