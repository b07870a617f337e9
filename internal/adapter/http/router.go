package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http/middleware"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

type Handlers struct {
	Guest    *GuestHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Payment  *PaymentHandler
	Orders   *OrderHandler
}

func NewRouter(h Handlers, ids *middleware.Identity, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(log))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", ids.Resolve())
	{
		v1.POST("/guest", h.Guest.IssueToken)
		v1.GET("/orders/:number", h.Orders.Track)

		cart := v1.Group("/cart", ids.Require())
		cart.GET("", h.Cart.Get)
		cart.POST("/items", h.Cart.AddItem)
		cart.PATCH("/items/:id", h.Cart.UpdateQuantity)
		cart.DELETE("/items/:id", h.Cart.RemoveItem)
		cart.GET("/events", h.Cart.Events)

		// Checkout and payment are for signed-in customers only.
		account := v1.Group("", ids.RequireAccount())
		account.GET("/orders", h.Orders.Mine)

		co := account.Group("/checkout")
		co.POST("", h.Checkout.Begin)
		co.GET("/:sid", h.Checkout.Summary)
		co.PUT("/:sid/location", h.Checkout.SetLocation)
		co.POST("/:sid/location/confirm", h.Checkout.ConfirmLocation)
		co.PUT("/:sid/contact", h.Checkout.UpdateContact)
		co.POST("/:sid/coupon", h.Checkout.ApplyCoupon)
		co.DELETE("/:sid/coupon", h.Checkout.RemoveCoupon)
		co.POST("/:sid/continue", h.Checkout.Continue)
		co.GET("/:sid/events", h.Checkout.Events)

		pay := account.Group("/payment")
		pay.GET("/:sid", h.Payment.Open)
		pay.POST("/:sid/confirm", h.Payment.Confirm)
		pay.POST("/:sid/order", h.Payment.PlaceOrder)
		pay.GET("/:sid/events", h.Payment.Events)
	}

	return r
}
