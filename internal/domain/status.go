package domain

import (
	"fmt"
	"slices"

	"github.com/Skotchmaster/storefront/internal/models"
)

var orderStateTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:       {models.OrderStatusPaid, models.OrderStatusPaymentFailed, models.OrderStatusCancelled},
	models.OrderStatusPaymentFailed: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:          {models.OrderStatusShipped, models.OrderStatusRefunded, models.OrderStatusCancelled},
	models.OrderStatusShipped:       {models.OrderStatusDelivered},
}

// CheckTransition reports whether an order may move from one status to another.
// Staying in the same status is allowed so duplicate notifications are no-ops.
func CheckTransition(from, to models.OrderStatus) error {
	if from == to {
		return nil
	}
	if slices.Contains(orderStateTransitions[from], to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// ReleasesStock reports whether entering status returns reserved units to the ledger.
func ReleasesStock(status models.OrderStatus) bool {
	return status == models.OrderStatusCancelled || status == models.OrderStatusRefunded
}

func ParseStatus(s string) (models.OrderStatus, error) {
	st := models.OrderStatus(s)
	switch st {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusPaymentFailed,
		models.OrderStatusCancelled, models.OrderStatusRefunded, models.OrderStatusShipped,
		models.OrderStatusDelivered:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}
