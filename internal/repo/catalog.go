package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func orderedVariants(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC").Order("id ASC")
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Variants", orderedVariants).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts loads the given products with their variants. Missing ids are
// simply absent from the result.
func (r *GormRepo) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Variants", orderedVariants).
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// CreateProduct inserts a product and its variants. Catalog management lives
// elsewhere; this exists for seeding and tests.
func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var v models.Variant
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) SetVariantPrice(ctx context.Context, id uuid.UUID, price any) error {
	res := r.DB.WithContext(ctx).Model(&models.Variant{}).Where("id = ?", id).Update("price", price)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
