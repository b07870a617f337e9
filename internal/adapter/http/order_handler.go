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

type OrderHandler struct {
	tracking *usecase.OrderTracking
}

func NewOrderHandler(tracking *usecase.OrderTracking) *OrderHandler {
	return &OrderHandler{tracking: tracking}
}

type orderResp struct {
	OrderNumber string        `json:"order_number"`
	Status      entity.Status `json:"status"`
	FinalAmount string        `json:"final_amount"`
	OrderDate   string        `json:"order_date,omitempty"`
}

func newOrderResp(o entity.TrackedOrder) orderResp {
	r := orderResp{
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		FinalAmount: entity.Display(o.FinalAmount),
	}
	if !o.PlacedAt.IsZero() {
		r.OrderDate = o.PlacedAt.UTC().Format(time.RFC3339)
	}
	return r
}

// GET /v1/orders/:number
// Public, like the shop's track page: the order number is the secret.
func (h *OrderHandler) Track(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	o, err := h.tracking.Track(ctx, c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResp(o))
}

func (h *OrderHandler) Mine(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), reqTimeout)
	defer cancel()

	orders, err := h.tracking.Mine(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResp(o))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": out})
}
