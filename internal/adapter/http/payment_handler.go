package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http/middleware"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

// Order submission waits on the shop backend; give it longer than the
// other calls.
const orderTimeout = 20 * time.Second

type PaymentHandler struct {
	payments  *usecase.PaymentService
	carts     *usecase.CartStore
	heartbeat time.Duration
}

func NewPaymentHandler(payments *usecase.PaymentService, carts *usecase.CartStore, heartbeat time.Duration) *PaymentHandler {
	return &PaymentHandler{payments: payments, carts: carts, heartbeat: heartbeat}
}

func (h *PaymentHandler) Open(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	view, err := h.payments.Open(ctx, id, c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	state, err := h.payments.ConfirmPaid(ctx, id, c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// PlaceOrder answers like the shop backend does: {success, order{order_number}}.
func (h *PaymentHandler) PlaceOrder(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), orderTimeout)
	defer cancel()

	receipt, err := h.payments.PlaceOrder(ctx, id, c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   receipt,
		"message": "Order placed successfully! Order number: " + receipt.OrderNumber,
	})
}

// Events streams cart changes with the notice the payment page should show.
// The cart emptying because the order went through is not announced.
func (h *PaymentHandler) Events(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	sid := c.Param("sid")
	ctx := c.Request.Context()

	view, err := h.payments.Open(ctx, id, sid)
	if err != nil {
		writeError(c, err)
		return
	}
	feed, err := h.carts.Subscribe(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	streamEvents(c, h.heartbeat, []sseEvent{{Name: "payment", Data: view}}, feed, func(cart entity.Cart) []sseEvent {
		notice, err := h.payments.CartChanged(ctx, sid, cart)
		if err != nil {
			logging.From(c).Warn("payment cart notice", "sid", sid, "err", err)
			return nil
		}
		switch notice {
		case usecase.NoticeSuppressed:
			return nil
		case usecase.NoticeCartEmptied:
			return []sseEvent{{Name: string(notice), Data: gin.H{"message": "Your cart is empty."}, Last: true}}
		}
		return []sseEvent{{Name: string(notice), Data: newCartResp(cart, true)}}
	})
}
