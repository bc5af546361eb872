package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOrder inserts the order and its items inside a savepoint, so a failed
// attempt (for example a duplicate order number) leaves the surrounding
// transaction usable.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(order).Error
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, int64, error) {
	db := r.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orders := []models.Order{}
	if err := db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// LockOrder loads an order with its items and holds a row lock on it until the
// surrounding transaction ends.
func (r *GormRepo) LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return r.lockOrderWhere(ctx, "id = ?", orderID)
}

func (r *GormRepo) LockOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.lockOrderWhere(ctx, "order_number = ?", number)
}

func (r *GormRepo) lockOrderWhere(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, arg).
		First(&order).Error; err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("id ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) error {
	return r.updateOrder(ctx, orderID, map[string]any{"status": status})
}

func (r *GormRepo) SetPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error {
	return r.updateOrder(ctx, orderID, map[string]any{"payment_id": paymentID})
}

func (r *GormRepo) updateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
