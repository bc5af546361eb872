package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventCartItemAdded    = "cart.item_added"
	EventCartItemUpdated  = "cart.item_updated"
	EventCartItemRemoved  = "cart.item_removed"
	EventCartCleared      = "cart.cleared"
	EventOrderPlaced      = "order.placed"
	EventOrderStatus      = "order.status_changed"
	EventPaymentInitiated = "order.payment_initiated"
)

type CartEvent struct {
	Type      string    `json:"type"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	At        time.Time `json:"at"`
}

type OrderEvent struct {
	Type        string             `json:"type"`
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      uuid.UUID          `json:"user_id"`
	Status      models.OrderStatus `json:"status"`
	Total       decimal.Decimal    `json:"total"`
	PaymentID   string             `json:"payment_id,omitempty"`
	At          time.Time          `json:"at"`
}

func orderEvent(typ string, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		Total:       o.Total,
		PaymentID:   o.PaymentID,
		At:          time.Now().UTC(),
	}
}

// publish is fire-and-forget: events go out after commit and a broker outage
// must not fail the request that already succeeded.
func publish(ctx context.Context, p events.Publisher, topic, key string, event any) {
	if p == nil || topic == "" {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "key", key, "error", err)
	}
}
