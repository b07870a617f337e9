package kafka

import (
	"context"
	"strings"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type StatusSink interface {
	HandleStatusChanged(ctx context.Context, msg usecase.OrderStatusChangedMsg) error
}

// The admin panel and older backend builds spell a few statuses differently.
var statusAliases = map[string]string{
	"canceled":   "cancelled",
	"confirmed":  "processing",
	"dispatched": "shipped",
	"completed":  "delivered",
}

type OrderStatusChangedHandler struct {
	Sink StatusSink
}

func NewOrderStatusChangedHandler(sink StatusSink) *OrderStatusChangedHandler {
	return &OrderStatusChangedHandler{Sink: sink}
}

func (h *OrderStatusChangedHandler) Handle(ctx context.Context, ev usecase.OrderStatusChangedMsg) error {
	st := strings.ToLower(strings.TrimSpace(ev.Status))
	if alias, ok := statusAliases[st]; ok {
		st = alias
	}
	ev.Status = st
	ev.OrderNumber = strings.TrimSpace(ev.OrderNumber)
	return h.Sink.HandleStatusChanged(ctx, ev)
}
