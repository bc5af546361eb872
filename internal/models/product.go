package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is read-only for this service; the catalog admin owns writes.
// Price, stock and SKU are derived from Variants and never stored here.
type Product struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"                     json:"id"`
	Name        string            `gorm:"not null"                                 json:"name"`
	Slug        string            `gorm:"uniqueIndex;not null"                     json:"slug"`
	Description string            `gorm:"type:text"                                json:"description"`
	BasePrice   decimal.Decimal   `gorm:"type:numeric(12,2);not null;default:0"    json:"base_price"`
	CategoryID  *uuid.UUID        `gorm:"type:uuid;index"                          json:"category_id,omitempty"`
	Images      []string          `gorm:"type:text;serializer:json"                json:"images"`
	Specs       map[string]string `gorm:"type:text;serializer:json"                json:"specs"`
	Variants    []Variant         `gorm:"foreignKey:ProductID"                     json:"variants,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}

// Variant is a purchasable configuration of a Product and the unit of stock.
// Position is the persisted order used by the checkout selection policy.
type Variant struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"                        json:"id"`
	ProductID  uuid.UUID           `gorm:"type:uuid;index;not null"                    json:"product_id"`
	Position   int                 `gorm:"not null;default:0"                          json:"position"`
	Kind       VariantKind         `gorm:"size:32;not null"                            json:"kind"`
	Attributes Attributes          `gorm:"type:text"                                   json:"attributes"`
	Price      decimal.Decimal     `gorm:"type:numeric(12,2);not null"                 json:"price"`
	OldPrice   decimal.NullDecimal `gorm:"type:numeric(12,2)"                          json:"old_price"`
	StockCount int                 `gorm:"not null;default:0;check:stock_count >= 0"   json:"stock_count"`
	InStock    bool                `gorm:"not null;default:false"                      json:"in_stock"`
	SKU        string              `gorm:"uniqueIndex;not null"                        json:"sku"`
	Images     []string            `gorm:"type:text;serializer:json"                   json:"images"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (v *Variant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.Kind = v.Attributes.KindOrGeneric()
	return nil
}

func (Variant) TableName() string {
	return "variants"
}

// Snapshot copies the descriptive fields of the variant so that carts and
// orders keep what the buyer saw even if the catalog changes later.
func (v Variant) Snapshot() VariantSnapshot {
	s := v.Attributes.Snapshot()
	s.SKU = v.SKU
	return s
}

// VariantSnapshot is a value copy, not a reference to a live Variant row.
type VariantSnapshot struct {
	Color        string `gorm:"size:64"  json:"color,omitempty"`
	Memory       string `gorm:"size:64"  json:"memory,omitempty"`
	Connectivity string `gorm:"size:64"  json:"connectivity,omitempty"`
	SKU          string `gorm:"size:128" json:"sku,omitempty"`
}
