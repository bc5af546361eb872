package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testdb"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemIsIdempotentPerProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	p := testdb.SeedProduct(t, f.db, "90", testdb.Variant("100", 0), testdb.Variant("120", 5))

	first, err := f.carts.AddItem(ctx, user, p.ID, 1, nil)
	require.NoError(t, err)
	second, err := f.carts.AddItem(ctx, user, p.ID, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)
	// Defaults to the variant checkout would pick.
	assert.Equal(t, p.Variants[1].SKU, second.Variant.SKU)
	assert.Equal(t, 1, f.cartSize(t, user))

	recorded := f.recorder.Events()
	require.Len(t, recorded, 2)
	assert.Equal(t, "cart_events", recorded[0].Topic)
	assert.Equal(t, EventCartItemAdded, recorded[0].Event.(CartEvent).Type)
}

func TestAddItemRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	p := testdb.SeedProduct(t, f.db, "100", testdb.Variant("100", 2))
	empty := testdb.SeedProduct(t, f.db, "100")

	_, err := f.carts.AddItem(ctx, user, uuid.New(), 1, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.carts.AddItem(ctx, user, p.ID, 0, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.carts.AddItem(ctx, user, p.ID, 3, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.carts.AddItem(ctx, user, empty.ID, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 0, f.cartSize(t, user))
}

func TestAddItemKeepsSuppliedSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	p := testdb.SeedProduct(t, f.db, "100", testdb.Variant("100", 2))

	item, err := f.carts.AddItem(ctx, user, p.ID, 1, &models.VariantSnapshot{Color: "Gold", Memory: "256GB"})
	require.NoError(t, err)
	assert.Equal(t, "Gold", item.Variant.Color)
	assert.Equal(t, "256GB", item.Variant.Memory)
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()
	p := testdb.SeedProduct(t, f.db, "100", testdb.Variant("100", 3))

	item, err := f.carts.AddItem(ctx, owner, p.ID, 1, nil)
	require.NoError(t, err)

	updated, err := f.carts.UpdateQuantity(ctx, owner, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	for _, qty := range []int{0, -2} {
		_, err = f.carts.UpdateQuantity(ctx, owner, item.ID, qty)
		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr, "quantity %d", qty)
		assert.Equal(t, p.ID, stockErr.ProductID)
	}

	_, err = f.carts.UpdateQuantity(ctx, owner, item.ID, 4)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.carts.UpdateQuantity(ctx, stranger, item.ID, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.carts.UpdateQuantity(ctx, owner, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()
	a := testdb.SeedProduct(t, f.db, "100", testdb.Variant("100", 3))
	b := testdb.SeedProduct(t, f.db, "100", testdb.Variant("100", 3))

	item, err := f.carts.AddItem(ctx, owner, a.ID, 1, nil)
	require.NoError(t, err)
	f.addToCart(t, owner, b.ID, 1)

	assert.ErrorIs(t, f.carts.RemoveItem(ctx, stranger, item.ID), domain.ErrForbidden)
	assert.Equal(t, 2, f.cartSize(t, owner))

	require.NoError(t, f.carts.RemoveItem(ctx, owner, item.ID))
	assert.Equal(t, 1, f.cartSize(t, owner))

	require.NoError(t, f.carts.Clear(ctx, stranger))
	assert.Equal(t, 1, f.cartSize(t, owner))

	require.NoError(t, f.carts.Clear(ctx, owner))
	assert.Equal(t, 0, f.cartSize(t, owner))
}

func TestGetCartPricesThroughResolver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	phone := testdb.SeedProduct(t, f.db, "90", testdb.Variant("100", 0), testdb.Variant("120", 5))
	cable := testdb.SeedProduct(t, f.db, "10", testdb.Variant("15.50", 10))

	f.addToCart(t, user, phone.ID, 2)
	f.addToCart(t, user, cable.ID, 1)

	view, err := f.carts.GetCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	byProduct := map[uuid.UUID]CartLine{}
	for _, ln := range view.Items {
		byProduct[ln.ProductID] = ln
	}
	phoneLine := byProduct[phone.ID]
	assert.True(t, decimal.NewFromInt(100).Equal(phoneLine.UnitPrice), phoneLine.UnitPrice.String())
	assert.True(t, decimal.NewFromInt(200).Equal(phoneLine.LineTotal))
	assert.True(t, phoneLine.InStock)
	assert.True(t, decimal.RequireFromString("215.50").Equal(view.Total), view.Total.String())

	// Live price, not the price at add time.
	require.NoError(t, f.repo.SetVariantPrice(ctx, cable.Variants[0].ID, decimal.NewFromInt(20)))
	view, err = f.carts.GetCart(ctx, user)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(220).Equal(view.Total), view.Total.String())
}

func TestGetCartEmpty(t *testing.T) {
	f := newFixture(t)

	view, err := f.carts.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}
