package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http/middleware"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

const reqTimeout = 10 * time.Second

type CartHandler struct {
	carts     *usecase.CartStore
	heartbeat time.Duration
}

func NewCartHandler(carts *usecase.CartStore, heartbeat time.Duration) *CartHandler {
	return &CartHandler{carts: carts, heartbeat: heartbeat}
}

type cartResp struct {
	Cart      entity.Cart `json:"cart"`
	Count     int         `json:"count"`
	Subtotal  string      `json:"subtotal"`
	Persisted bool        `json:"persisted"`
}

func newCartResp(cart entity.Cart, persisted bool) cartResp {
	return cartResp{
		Cart:      cart,
		Count:     cart.Count(),
		Subtotal:  entity.Display(cart.Subtotal()),
		Persisted: persisted,
	}
}

type addItemReq struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"omitempty,gte=0,lte=99"`
}

type changeQtyReq struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *CartHandler) Get(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	cart, err := h.carts.Load(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResp(cart, true))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	m, err := h.carts.AddItem(ctx, id, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResp(m.Cart, m.Persisted))
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	productID, ok := productParam(c)
	if !ok {
		return
	}
	var req changeQtyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	m, err := h.carts.UpdateQuantity(ctx, id, productID, req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResp(m.Cart, m.Persisted))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := productParam(c)
	if !ok {
		return
	}
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	m, err := h.carts.RemoveItem(ctx, id, productID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResp(m.Cart, m.Persisted))
}

// Events streams the cart after every change, starting with the current one.
func (h *CartHandler) Events(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ctx := c.Request.Context()

	cart, err := h.carts.Load(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	feed, err := h.carts.Subscribe(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	logging.From(c).Debug("cart stream opened", "identity", id.Key())

	streamEvents(c, h.heartbeat,
		[]sseEvent{{Name: "cart", Data: newCartResp(cart, true)}},
		feed,
		func(cart entity.Cart) []sseEvent {
			return []sseEvent{{Name: "cart", Data: newCartResp(cart, true)}}
		})
}

func productParam(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "error_description": "invalid product id"})
		return 0, false
	}
	return n, true
}
