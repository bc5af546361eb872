package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/paygate"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
)

type Gateway interface {
	Init(ctx context.Context, in paygate.InitRequest) (*paygate.PaymentResponse, error)
	GetState(ctx context.Context, paymentID string) (*paygate.PaymentResponse, error)
	Cancel(ctx context.Context, paymentID string) (*paygate.PaymentResponse, error)
	VerifyNotification(n paygate.Notification) bool
}

type PaymentService struct {
	Repo    *repo.GormRepo
	Orders  *OrderService
	Gateway Gateway

	NotificationURL string
	SuccessURL      string
	FailURL         string
}

type PaymentInit struct {
	OrderID    uuid.UUID `json:"order_id"`
	PaymentID  string    `json:"payment_id"`
	PaymentURL string    `json:"payment_url"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
}

type PaymentState struct {
	Order          *models.Order `json:"order"`
	ProviderStatus string        `json:"provider_status"`
}

// orderStatusFor maps a provider payment status to the order status it
// settles. Intermediate provider statuses settle nothing, and neither does a
// partial refund: the buyer keeps part of the goods, so no stock comes back.
func orderStatusFor(providerStatus string) (models.OrderStatus, bool) {
	switch providerStatus {
	case paygate.StatusConfirmed:
		return models.OrderStatusPaid, true
	case paygate.StatusRejected:
		return models.OrderStatusPaymentFailed, true
	case paygate.StatusCanceled, paygate.StatusReversed:
		return models.OrderStatusCancelled, true
	case paygate.StatusRefunded:
		return models.OrderStatusRefunded, true
	default:
		return "", false
	}
}

// Initiate registers a payment for the order with the provider. Amounts go
// out in minor units. Only the payment id is stored locally; a previous
// payment on a pending order is cancelled with the provider first.
func (s *PaymentService) Initiate(ctx context.Context, userID, orderID uuid.UUID) (*PaymentInit, error) {
	l := logging.FromContext(ctx).With("svc", "payment.initiate", "order_id", orderID)

	order, err := s.Orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusPaymentFailed {
		return nil, fmt.Errorf("cannot pay %s order: %w", order.Status, domain.ErrInvalidTransition)
	}

	if order.Status == models.OrderStatusPending && order.PaymentID != "" {
		order, err = s.replacePayment(ctx, order)
		if err != nil {
			return nil, err
		}
	}

	amount := order.Total.Shift(2).IntPart()
	data := map[string]string{}
	if order.Contact.Email != "" {
		data["Email"] = order.Contact.Email
	}
	if order.Contact.Phone != "" {
		data["Phone"] = order.Contact.Phone
	}

	resp, err := s.Gateway.Init(ctx, paygate.InitRequest{
		Amount:          amount,
		OrderID:         order.OrderNumber,
		Description:     "Order " + order.OrderNumber,
		CustomerKey:     userID.String(),
		NotificationURL: s.NotificationURL,
		SuccessURL:      s.SuccessURL,
		FailURL:         s.FailURL,
		Data:            data,
	})
	if err != nil {
		l.Error("payment_init_failed", "error", err)
		return nil, err
	}

	paymentID := resp.PaymentID.String()
	if err := s.Repo.SetPaymentID(ctx, order.ID, paymentID); err != nil {
		return nil, err
	}
	order.PaymentID = paymentID

	l.Info("payment_initiated", "payment_id", paymentID, "amount", amount)
	publish(ctx, s.Orders.Events, s.Orders.Topic, order.ID.String(), orderEvent(EventPaymentInitiated, order))

	return &PaymentInit{
		OrderID:    order.ID,
		PaymentID:  paymentID,
		PaymentURL: resp.PaymentURL,
		Status:     resp.Status,
		Amount:     amount,
	}, nil
}

// HandleNotification applies a provider webhook. The order is touched only
// after the signature checks out. A nil error means the provider may be
// acknowledged.
func (s *PaymentService) HandleNotification(ctx context.Context, body []byte) error {
	l := logging.FromContext(ctx).With("svc", "payment.notify")

	n, err := paygate.ParseNotification(body)
	if err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	if !s.Gateway.VerifyNotification(n) {
		return fmt.Errorf("notification for order %q: %w", n.OrderID(), domain.ErrSignatureMismatch)
	}

	l = l.With("order_number", n.OrderID(), "payment_id", n.PaymentID(), "provider_status", n.Status())

	to, ok := orderStatusFor(n.Status())
	if !ok {
		l.Info("notification_no_settlement")
		return nil
	}

	paymentID := n.PaymentID()
	_, changed, err := s.Orders.transition(ctx, to,
		func(tx *repo.GormRepo) (*models.Order, error) {
			o, err := tx.LockOrderByNumber(ctx, n.OrderID())
			if err != nil {
				return nil, err
			}
			if o.PaymentID == "" && paymentID != "" {
				if err := tx.SetPaymentID(ctx, o.ID, paymentID); err != nil {
					return nil, err
				}
				o.PaymentID = paymentID
			}
			return o, nil
		},
		func(o *models.Order) error {
			if paymentID != "" && o.PaymentID != paymentID {
				return errStaleNotification
			}
			return nil
		})

	switch {
	case errors.Is(err, errStaleNotification):
		if to == models.OrderStatusPaid {
			l.Error("confirmed_payment_was_replaced")
			return nil
		}
		l.Warn("notification_for_replaced_payment")
		return nil
	case errors.Is(err, domain.ErrInvalidTransition):
		// Out-of-order delivery; acknowledged so the provider stops retrying.
		l.Warn("notification_transition_ignored", "error", err)
		return nil
	case err != nil:
		return err
	}

	l.Info("notification_applied", "changed", changed)
	return nil
}

var errStaleNotification = errors.New("notification for a replaced payment")

// replacePayment retires the payment already attached to a pending order so
// that at most one payment link is live. A payment the provider has settled in
// the meantime is applied to the order instead; only a rejected one lets a new
// payment start.
func (s *PaymentService) replacePayment(ctx context.Context, order *models.Order) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.replace", "order_id", order.ID, "payment_id", order.PaymentID)

	state, err := s.Gateway.GetState(ctx, order.PaymentID)
	if err != nil {
		l.Error("payment_state_failed", "error", err)
		return nil, err
	}

	if to, ok := orderStatusFor(state.Status); ok {
		updated, err := s.settle(ctx, order.ID, to)
		if err != nil {
			return nil, err
		}
		if to != models.OrderStatusPaymentFailed {
			l.Warn("payment_already_settled", "provider_status", state.Status)
			return nil, fmt.Errorf("payment %s is %s: %w", order.PaymentID, state.Status, domain.ErrInvalidTransition)
		}
		order.Status = updated.Status
		return order, nil
	}

	if _, err := s.Gateway.Cancel(ctx, order.PaymentID); err != nil {
		l.Error("payment_cancel_failed", "error", err)
		return nil, err
	}
	l.Info("payment_replaced", "provider_status", state.Status)
	return order, nil
}

func (s *PaymentService) settle(ctx context.Context, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	updated, _, err := s.Orders.transition(ctx, to,
		func(tx *repo.GormRepo) (*models.Order, error) { return tx.LockOrder(ctx, orderID) },
		nil)
	return updated, err
}

// SyncState asks the provider for the payment state and settles the order the
// same way a notification would.
func (s *PaymentService) SyncState(ctx context.Context, userID, orderID uuid.UUID) (*PaymentState, error) {
	l := logging.FromContext(ctx).With("svc", "payment.sync", "order_id", orderID)

	order, err := s.Orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentID == "" {
		return nil, fmt.Errorf("order %s has no payment: %w", orderID, domain.ErrValidation)
	}

	resp, err := s.Gateway.GetState(ctx, order.PaymentID)
	if err != nil {
		l.Error("payment_state_failed", "error", err)
		return nil, err
	}

	to, ok := orderStatusFor(resp.Status)
	if !ok {
		return &PaymentState{Order: order, ProviderStatus: resp.Status}, nil
	}

	updated, err := s.settle(ctx, order.ID, to)
	if errors.Is(err, domain.ErrInvalidTransition) {
		l.Warn("payment_state_transition_ignored", "provider_status", resp.Status, "error", err)
		return &PaymentState{Order: order, ProviderStatus: resp.Status}, nil
	}
	if err != nil {
		return nil, err
	}
	return &PaymentState{Order: updated, ProviderStatus: resp.Status}, nil
}

// CancelOrder cancels the payment with the provider, if one was started, and
// then cancels the order and returns its stock. A gateway failure leaves the
// order as it was.
func (s *PaymentService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.cancel", "order_id", orderID)

	order, err := s.Orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentID != "" && order.Status == models.OrderStatusPending {
		if _, err := s.Gateway.Cancel(ctx, order.PaymentID); err != nil {
			l.Error("payment_cancel_failed", "payment_id", order.PaymentID, "error", err)
			return nil, err
		}
	}

	return s.Orders.CancelOrder(ctx, userID, orderID)
}
