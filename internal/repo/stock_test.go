package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryReserve(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()

	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", 3))
	vid := p.Variants[0].ID

	require.NoError(t, r.TryReserve(ctx, vid, 2))
	count, inStock := testdb.StockOf(t, db, vid)
	assert.Equal(t, 1, count)
	assert.True(t, inStock)

	err := r.TryReserve(ctx, vid, 2)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, vid, stockErr.VariantID)
	assert.Equal(t, 1, stockErr.Available)

	require.NoError(t, r.TryReserve(ctx, vid, 1))
	count, inStock = testdb.StockOf(t, db, vid)
	assert.Equal(t, 0, count)
	assert.False(t, inStock)

	require.ErrorIs(t, r.TryReserve(ctx, vid, 1), domain.ErrInsufficientStock)
}

func TestTryReserveRejects(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()

	require.ErrorIs(t, r.TryReserve(ctx, uuid.New(), 1), domain.ErrNotFound)

	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", 5))
	require.ErrorIs(t, r.TryReserve(ctx, p.Variants[0].ID, 0), domain.ErrValidation)

	// A variant flagged out of stock is not reservable even with a positive count.
	drift := testdb.Variant("100", 5)
	drift.InStock = false
	q := testdb.SeedProduct(t, db, "100", drift)
	require.ErrorIs(t, r.TryReserve(ctx, q.Variants[0].ID, 1), domain.ErrInsufficientStock)
}

func TestRelease(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()

	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", 1))
	vid := p.Variants[0].ID

	require.NoError(t, r.TryReserve(ctx, vid, 1))
	require.NoError(t, r.Release(ctx, vid, 1))

	count, inStock := testdb.StockOf(t, db, vid)
	assert.Equal(t, 1, count)
	assert.True(t, inStock)

	require.ErrorIs(t, r.Release(ctx, uuid.New(), 1), domain.ErrNotFound)
	require.ErrorIs(t, r.Release(ctx, vid, -1), domain.ErrValidation)
}

func TestTryReserveRolledBackWithTransaction(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()

	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", 4))
	vid := p.Variants[0].ID

	boom := errors.New("boom")
	err := r.InTx(ctx, func(tx *GormRepo) error {
		require.NoError(t, tx.TryReserve(ctx, vid, 3))
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, _ := testdb.StockOf(t, db, vid)
	assert.Equal(t, 4, count)
}

func TestTryReserveConcurrent(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()

	const stock = 5
	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", stock))
	vid := p.Variants[0].ID

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.InTx(ctx, func(tx *GormRepo) error {
				return tx.TryReserve(ctx, vid, 1)
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, success)
	count, inStock := testdb.StockOf(t, db, vid)
	assert.Equal(t, 0, count)
	assert.False(t, inStock)
}
