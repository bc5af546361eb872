package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/domain"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func userID(c echo.Context) (uuid.UUID, error) {
	v := c.Get(middleware.CtxUserID)
	s, ok := v.(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return id, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// statusFor maps domain errors to a response status and a message safe to
// show to the client.
func statusFor(err error) (int, string) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return http.StatusConflict, fmt.Sprintf("insufficient stock for product %s", stockErr.ProductID)
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrSignatureMismatch):
		return http.StatusBadRequest, "invalid token"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "order status does not allow this"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict, try again"
	case errors.Is(err, domain.ErrGateway):
		return http.StatusBadGateway, "payment provider unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func fail(l *slog.Logger, event string, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}
