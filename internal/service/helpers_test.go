package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testdb"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	repo     *repo.GormRepo
	recorder *events.Recorder
	carts    *CartService
	orders   *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(testdb.Open(t))
}

func newFixtureOn(db *gorm.DB) *fixture {
	r := &repo.GormRepo{DB: db}
	rec := &events.Recorder{}
	return &fixture{
		db:       db,
		repo:     r,
		recorder: rec,
		carts:    &CartService{Repo: r, Events: rec, Topic: "cart_events"},
		orders:   &OrderService{Repo: r, Events: rec, Topic: "order_events"},
	}
}

// soldUnits sums the order lines that captured units of a product.
func (f *fixture) soldUnits(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&n).Error)
	return int(n)
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func placeInput(user uuid.UUID, items ...PlaceOrderItem) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:   user,
		Items:    items,
		Delivery: models.Delivery{City: "Moscow", Street: "Tverskaya", House: "1"},
		Contact:  models.Contact{FullName: "Ivan Petrov", Phone: "+79990000000", Email: "ivan@example.com"},
	}
}

func line(productID uuid.UUID, qty int) PlaceOrderItem {
	return PlaceOrderItem{ProductID: productID, Quantity: qty}
}

func (f *fixture) addToCart(t *testing.T, user, productID uuid.UUID, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), user, productID, qty, nil)
	require.NoError(t, err)
}

func (f *fixture) cartSize(t *testing.T, user uuid.UUID) int {
	t.Helper()
	cart, err := f.repo.FindCart(context.Background(), user)
	require.NoError(t, err)
	return len(cart.Items)
}
