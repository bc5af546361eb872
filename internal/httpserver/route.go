package httpserver

import (
	"net/http"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type Deps struct {
	DB             *gorm.DB
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	authMW := middleware.NewIdentityMiddleware(d.JWTSecret)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddItem)
	cart.DELETE("", d.CartHandler.Clear)
	cart.PATCH("/items/:id", d.CartHandler.UpdateQuantity)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/payment", d.PaymentHandler.Initiate)
	orders.GET("/:id/payment", d.PaymentHandler.SyncState)
	orders.POST("/:id/cancel", d.PaymentHandler.CancelOrder)

	// The provider authenticates with the notification signature, not a JWT.
	e.POST("/payments/notify", d.PaymentHandler.Notify)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
}

func (d *Deps) ready(c echo.Context) error {
	if d.DB == nil {
		return c.NoContent(http.StatusOK)
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	if err := sqlDB.PingContext(c.Request().Context()); err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
