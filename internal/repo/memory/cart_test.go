package memory

import (
	"context"
	"testing"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository()

	_, err := repo.Load(ctx, "s-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	doc := &models.CartDocument{
		SessionID: "s-1",
		Lines:     []models.CartLine{{Product: models.Product{ID: 1, Price: decimal.NewFromInt(3)}, Quantity: 2}},
		Count:     2,
	}
	require.NoError(t, repo.Save(ctx, doc))

	// stored copy is detached from the caller
	doc.Lines[0].Quantity = 99

	got, err := repo.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.Equal(t, 2, got.Count)

	require.NoError(t, repo.Delete(ctx, "s-1"))
	require.NoError(t, repo.Delete(ctx, "s-1"))
	_, err = repo.Load(ctx, "s-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
