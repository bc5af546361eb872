package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusPaid          OrderStatus = "paid"
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusRefunded      OrderStatus = "refunded"
	OrderStatusShipped       OrderStatus = "shipped"
	OrderStatusDelivered     OrderStatus = "delivered"
)

type Delivery struct {
	City       string `gorm:"size:128" json:"city"`
	Street     string `gorm:"size:256" json:"street"`
	House      string `gorm:"size:32"  json:"house"`
	Apartment  string `gorm:"size:32"  json:"apartment,omitempty"`
	PostalCode string `gorm:"size:16"  json:"postal_code,omitempty"`
	Comment    string `gorm:"size:512" json:"comment,omitempty"`
}

type Contact struct {
	FullName string `gorm:"size:256" json:"full_name"`
	Phone    string `gorm:"size:32"  json:"phone"`
	Email    string `gorm:"size:256" json:"email"`
}

// Order rows are immutable after creation apart from Status and PaymentID.
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"                      json:"id"`
	OrderNumber string          `gorm:"size:40;uniqueIndex;not null"              json:"order_number"`
	UserID      uuid.UUID       `gorm:"type:uuid;index;not null"                  json:"user_id"`
	Delivery    Delivery        `gorm:"embedded;embeddedPrefix:delivery_"         json:"delivery"`
	Contact     Contact         `gorm:"embedded;embeddedPrefix:contact_"          json:"contact"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"total"`
	Status      OrderStatus     `gorm:"size:32;index;not null"                    json:"status"`
	PaymentID   string          `gorm:"size:64;index"                             json:"payment_id,omitempty"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID"                        json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem keeps the unit price captured at placement time; it is never
// recomputed from the catalog.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                  json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"              json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"                    json:"product_id"`
	VariantID uuid.UUID       `gorm:"type:uuid;not null"                    json:"variant_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0"           json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"           json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null"           json:"line_total"`
	Variant   VariantSnapshot `gorm:"embedded;embeddedPrefix:variant_"      json:"variant"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string {
	return "order_items"
}

// All lists every table owned by this service, in migration order.
func All() []any {
	return []any{&Product{}, &Variant{}, &Cart{}, &CartItem{}, &Order{}, &OrderItem{}}
}
