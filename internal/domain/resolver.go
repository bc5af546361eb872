package domain

import (
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const NoSKU = "N/A"

// View is the externally visible, derived state of a product. It is computed on
// every read and never persisted.
type View struct {
	Price      decimal.Decimal     `json:"price"`
	OldPrice   decimal.NullDecimal `json:"old_price"`
	InStock    bool                `json:"in_stock"`
	StockCount int                 `json:"stock_count"`
	SKU        string              `json:"sku"`
}

// Resolve derives the display view of a product from its variants.
//
// The primary variant is the cheapest one; among equal prices the first in
// input order wins, so identical input always yields the same view. Stock is
// the sum over all variants and InStock is true if any variant is both flagged
// in stock and has a positive count. Input is not validated.
func Resolve(p models.Product, variants []models.Variant) View {
	if len(variants) == 0 {
		return View{Price: p.BasePrice, SKU: NoSKU}
	}

	primary := 0
	for i := 1; i < len(variants); i++ {
		if variants[i].Price.LessThan(variants[primary].Price) {
			primary = i
		}
	}

	v := View{
		Price:    variants[primary].Price,
		OldPrice: variants[primary].OldPrice,
		SKU:      variants[primary].SKU,
	}
	if v.SKU == "" {
		v.SKU = NoSKU
	}
	for _, variant := range variants {
		v.StockCount += variant.StockCount
		if variant.InStock && variant.StockCount > 0 {
			v.InStock = true
		}
	}
	return v
}

// SelectVariant is the purchase rule, separate from the display rule in
// Resolve: the first variant in persisted order that is in stock and can cover
// quantity on its own. A line item is never split across variants.
func SelectVariant(variants []models.Variant, quantity int) (models.Variant, bool) {
	for _, v := range variants {
		if v.InStock && v.StockCount >= quantity {
			return v, true
		}
	}
	return models.Variant{}, false
}
