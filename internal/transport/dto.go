package transport

import (
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AddCartItemRequest struct {
	ProductID uuid.UUID               `json:"product_id"`
	Quantity  int                     `json:"quantity"`
	Variant   *models.VariantSnapshot `json:"variant,omitempty"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	// Accepted for compatibility with older clients; the server price wins.
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type CreateOrderRequest struct {
	Items    []CreateOrderItem `json:"items"`
	Delivery models.Delivery   `json:"delivery"`
	Contact  models.Contact    `json:"contact"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
