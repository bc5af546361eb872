package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testdb"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrder(user uuid.UUID, number string, p models.Product) *models.Order {
	v := p.Variants[0]
	return &models.Order{
		OrderNumber: number,
		UserID:      user,
		Total:       v.Price,
		Status:      models.OrderStatusPending,
		Items: []models.OrderItem{{
			ProductID: p.ID,
			VariantID: v.ID,
			Quantity:  1,
			UnitPrice: v.Price,
			LineTotal: v.Price,
			Variant:   v.Snapshot(),
		}},
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	user := uuid.New()
	p := testdb.SeedProduct(t, db, "100", testdb.Variant("120", 3))

	o := newOrder(user, "ORD-1", p)
	require.NoError(t, r.CreateOrder(ctx, o))

	got, err := r.GetOrder(ctx, user, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", got.OrderNumber)
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.NewFromInt(120).Equal(got.Items[0].UnitPrice))

	_, err = r.GetOrder(ctx, uuid.New(), o.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCreateOrderDuplicateNumberKeepsTransactionUsable(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	user := uuid.New()
	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", 3))

	require.NoError(t, r.CreateOrder(ctx, newOrder(user, "ORD-DUP", p)))

	err := r.InTx(ctx, func(tx *GormRepo) error {
		dupErr := tx.CreateOrder(ctx, newOrder(user, "ORD-DUP", p))
		require.True(t, IsDuplicate(dupErr))
		return tx.CreateOrder(ctx, newOrder(user, "ORD-NEW", p))
	})
	require.NoError(t, err)

	orders, total, err := r.ListOrders(ctx, user, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)
}

func TestListOrdersPaginates(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	user := uuid.New()
	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", 3))

	for _, n := range []string{"ORD-A", "ORD-B", "ORD-C"} {
		require.NoError(t, r.CreateOrder(ctx, newOrder(user, n, p)))
	}
	require.NoError(t, r.CreateOrder(ctx, newOrder(uuid.New(), "ORD-OTHER", p)))

	page, total, err := r.ListOrders(ctx, user, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)
}

func TestLockAndUpdateOrder(t *testing.T) {
	db := testdb.Open(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	user := uuid.New()
	p := testdb.SeedProduct(t, db, "100", testdb.Variant("100", 3))

	o := newOrder(user, "ORD-LOCK", p)
	require.NoError(t, r.CreateOrder(ctx, o))

	err := r.InTx(ctx, func(tx *GormRepo) error {
		locked, err := tx.LockOrderByNumber(ctx, "ORD-LOCK")
		if err != nil {
			return err
		}
		assert.Len(t, locked.Items, 1)
		if err := tx.SetPaymentID(ctx, locked.ID, "13660"); err != nil {
			return err
		}
		return tx.UpdateOrderStatus(ctx, locked.ID, models.OrderStatusPaid)
	})
	require.NoError(t, err)

	got, err := r.GetOrder(ctx, user, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, "13660", got.PaymentID)

	_, err = r.LockOrder(ctx, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.True(t, errors.Is(r.UpdateOrderStatus(ctx, uuid.New(), models.OrderStatusPaid), gorm.ErrRecordNotFound))
}
