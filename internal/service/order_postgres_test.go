package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/testdb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPlaceOrderNoOversellPostgres(t *testing.T) {
	f := newFixtureOn(testdb.OpenPostgres(t))
	ctx := context.Background()
	const stock, buyers = 7, 30
	p := testdb.SeedProduct(t, f.db, "100", testdb.Variant("100", stock))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		placed  int
		refused int
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.orders.PlaceOrder(ctx, placeInput(uuid.New(), line(p.ID, 1)))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				refused++
				return
			}
			placed++
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, stock, placed)
	assert.Equal(t, buyers-stock, refused)
	assert.Equal(t, stock, f.soldUnits(t, p.ID))

	count, inStock := testdb.StockOf(t, f.db, p.Variants[0].ID)
	assert.Equal(t, 0, count)
	assert.False(t, inStock)
}

func TestPlaceOrderLastUnitPostgres(t *testing.T) {
	f := newFixtureOn(testdb.OpenPostgres(t))
	ctx := context.Background()
	p := testdb.SeedProduct(t, f.db, "100", testdb.Variant("100", 1))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.orders.PlaceOrder(ctx, placeInput(uuid.New(), line(p.ID, 1)))
		}(i)
	}
	close(start)
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, f.soldUnits(t, p.ID))

	count, _ := testdb.StockOf(t, f.db, p.Variants[0].ID)
	assert.Equal(t, 0, count)
}
