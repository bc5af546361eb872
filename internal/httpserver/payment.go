package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

const maxNotificationBytes = 64 << 10

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Initiate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.initiate")

	uid, err := userID(c)
	if err != nil {
		l.Warn("initiate_payment_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := pathID(c)
	if err != nil {
		l.Warn("initiate_payment_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	res, err := h.Svc.Initiate(ctx, uid, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrGateway) {
			l.Error("initiate_payment_error", "status", 502, "reason", "gateway", "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "payment could not be started")
		}
		return fail(l, "initiate_payment_error", err)
	}

	l.Info("initiate_payment_success", "order_id", orderID, "payment_id", res.PaymentID)
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) SyncState(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.state")

	uid, err := userID(c)
	if err != nil {
		l.Warn("payment_state_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := pathID(c)
	if err != nil {
		l.Warn("payment_state_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	res, err := h.Svc.SyncState(ctx, uid, orderID)
	if err != nil {
		return fail(l, "payment_state_error", err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	uid, err := userID(c)
	if err != nil {
		l.Warn("cancel_order_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := pathID(c)
	if err != nil {
		l.Warn("cancel_order_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.Svc.CancelOrder(ctx, uid, orderID)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

// Notify is the provider webhook. The plain "OK" body is what the provider
// expects; anything else makes it redeliver.
func (h *PaymentHTTP) Notify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.notify")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxNotificationBytes))
	if err != nil {
		l.Warn("notification_error", "status", 400, "reason", "unreadable body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.HandleNotification(ctx, body); err != nil {
		return fail(l, "notification_error", err)
	}

	return c.String(http.StatusOK, "OK")
}
