package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http/middleware"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type CheckoutHandler struct {
	checkout  *usecase.CheckoutService
	carts     *usecase.CartStore
	heartbeat time.Duration
}

func NewCheckoutHandler(checkout *usecase.CheckoutService, carts *usecase.CartStore, heartbeat time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, carts: carts, heartbeat: heartbeat}
}

type beginReq struct {
	SessionID string `json:"session_id"`
}

type locationReq struct {
	Lat    *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
	Lng    *float64 `json:"lng" binding:"required,gte=-180,lte=180"`
	Source string   `json:"source"`
}

type couponReq struct {
	Code string `json:"code"`
}

// POST /v1/checkout
// An optional session_id resumes the tab's scope (and its stored contact details).
func (h *CheckoutHandler) Begin(c *gin.Context) {
	var req beginReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	sum, err := h.checkout.Begin(ctx, id, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sum)
}

func (h *CheckoutHandler) Summary(c *gin.Context) {
	h.respond(c, func(ctx context.Context, id entity.Identity, sid string) (usecase.Summary, error) {
		return h.checkout.Summary(ctx, id, sid)
	})
}

func (h *CheckoutHandler) SetLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := entity.GeoPoint{Lat: *req.Lat, Lng: *req.Lng}
	h.respond(c, func(ctx context.Context, id entity.Identity, sid string) (usecase.Summary, error) {
		return h.checkout.SetLocation(ctx, id, sid, p, usecase.LocationSource(req.Source))
	})
}

func (h *CheckoutHandler) ConfirmLocation(c *gin.Context) {
	h.respond(c, h.checkout.ConfirmLocation)
}

func (h *CheckoutHandler) UpdateContact(c *gin.Context) {
	var req usecase.Contact
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, func(ctx context.Context, id entity.Identity, sid string) (usecase.Summary, error) {
		return h.checkout.UpdateContact(ctx, id, sid, req)
	})
}

func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req couponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, func(ctx context.Context, id entity.Identity, sid string) (usecase.Summary, error) {
		return h.checkout.ApplyCoupon(ctx, id, sid, req.Code)
	})
}

func (h *CheckoutHandler) RemoveCoupon(c *gin.Context) {
	h.respond(c, h.checkout.RemoveCoupon)
}

// Continue hands the session off to the payment step.
func (h *CheckoutHandler) Continue(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	snap, err := h.checkout.ContinueToPayment(ctx, id, c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipping": snap, "next": "/v1/payment/" + c.Param("sid")})
}

// Events folds cart changes into the session and streams the new summary. An
// emptied cart ends the stream with a cart_emptied event.
func (h *CheckoutHandler) Events(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	sid := c.Param("sid")
	ctx := c.Request.Context()

	sum, err := h.checkout.Summary(ctx, id, sid)
	if err != nil {
		writeError(c, err)
		return
	}
	feed, err := h.carts.Subscribe(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	streamEvents(c, h.heartbeat, []sseEvent{{Name: "summary", Data: sum}}, feed, func(cart entity.Cart) []sseEvent {
		sum, emptied, err := h.checkout.CartChanged(ctx, id, sid, cart)
		switch {
		case err != nil:
			return []sseEvent{{Name: "error", Data: gin.H{"error": err.Error()}, Last: true}}
		case emptied:
			return []sseEvent{{Name: "cart_emptied", Data: gin.H{"message": "Your cart is empty."}, Last: true}}
		}
		return []sseEvent{{Name: "summary", Data: sum}}
	})
}

func (h *CheckoutHandler) respond(c *gin.Context, fn func(context.Context, entity.Identity, string) (usecase.Summary, error)) {
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	sum, err := fn(ctx, id, c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
