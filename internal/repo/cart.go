package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) userCartIDs(userID uuid.UUID) *gorm.DB {
	return r.DB.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
}

// GetOrCreateCart returns the user's cart, creating it on first use.
// Concurrent first calls converge on the same row through the unique user_id.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	db := r.DB.WithContext(ctx)

	cart := models.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&cart).Error; err != nil {
		return nil, err
	}

	var out models.Cart
	if err := db.Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCart returns the user's cart with items, or an empty cart value when the
// user never added anything.
func (r *GormRepo) FindCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func snapshotColumns(s models.VariantSnapshot) map[string]any {
	return map[string]any{
		"variant_color":        s.Color,
		"variant_memory":       s.Memory,
		"variant_connectivity": s.Connectivity,
		"variant_sku":          s.SKU,
	}
}

// AddCartItem increments the line for (cart, product) or creates it. The
// increment is a single statement; a racing insert loses on the unique index
// and falls back to the increment.
func (r *GormRepo) AddCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int, snapshot *models.VariantSnapshot) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be > 0: %w", domain.ErrValidation)
	}

	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		increment := func() (bool, error) {
			updates := map[string]any{"quantity": gorm.Expr("quantity + ?", quantity)}
			if snapshot != nil {
				for k, v := range snapshotColumns(*snapshot) {
					updates[k] = v
				}
			}
			res := tx.Model(&models.CartItem{}).
				Where("cart_id = ? AND product_id = ?", cartID, productID).
				Updates(updates)
			if res.Error != nil {
				return false, res.Error
			}
			if res.RowsAffected == 0 {
				return false, nil
			}
			return true, tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
		}

		done, err := increment()
		if err != nil || done {
			return err
		}

		item = models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
		if snapshot != nil {
			item.Variant = *snapshot
		}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&item).Error
		})
		if !IsDuplicate(err) {
			return err
		}

		done, err = increment()
		if err != nil {
			return err
		}
		if !done {
			return fmt.Errorf("cart item for product %s: %w", productID, domain.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindCartItem loads an item only if it belongs to the user's cart.
func (r *GormRepo) FindCartItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, r.userCartIDs(userID)).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be > 0: %w", domain.ErrValidation)
	}

	db := r.DB.WithContext(ctx)
	res := db.Model(&models.CartItem{}).
		Where("id = ? AND cart_id IN (?)", itemID, r.userCartIDs(userID)).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var item models.CartItem
	if err := db.Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, r.userCartIDs(userID)).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearCart removes every item of the user's cart and reports how many went.
func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("cart_id IN (?)", r.userCartIDs(userID)).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
