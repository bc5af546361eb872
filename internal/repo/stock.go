package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TryReserve takes quantity units from a variant in a single conditional
// UPDATE, so concurrent callers for the same row are serialized by the
// database. It never reads and then writes.
func (r *GormRepo) TryReserve(ctx context.Context, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("reserve quantity must be > 0: %w", domain.ErrValidation)
	}

	res := r.DB.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND in_stock = ? AND stock_count >= ?", variantID, true, quantity).
		Updates(map[string]any{
			"stock_count": gorm.Expr("stock_count - ?", quantity),
			"in_stock":    gorm.Expr("stock_count - ? > 0", quantity),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var current models.Variant
	if err := r.DB.WithContext(ctx).
		Select("id", "product_id", "stock_count", "in_stock").
		Where("id = ?", variantID).
		First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("variant %s: %w", variantID, domain.ErrNotFound)
		}
		return err
	}

	return &domain.InsufficientStockError{
		ProductID: current.ProductID,
		VariantID: current.ID,
		Requested: quantity,
		Available: current.StockCount,
	}
}

// Release returns quantity units to a variant and marks it in stock again.
func (r *GormRepo) Release(ctx context.Context, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("release quantity must be > 0: %w", domain.ErrValidation)
	}

	res := r.DB.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"stock_count": gorm.Expr("stock_count + ?", quantity),
			"in_stock":    gorm.Expr("stock_count + ? > 0", quantity),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("variant %s: %w", variantID, domain.ErrNotFound)
	}
	return nil
}
