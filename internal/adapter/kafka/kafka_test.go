package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/cache"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

func TestStatusChange_UpdatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rc := cache.NewRedisCache(rdb, time.Hour)
	tracking := usecase.NewOrderTracking(nil, rc)
	ctx := context.Background()

	require.NoError(t, tracking.HandleOrderPlaced(ctx, usecase.OrderPlacedMsg{OrderNumber: "ORD-1", Email: "a@b.c"}))

	h := &cgHandler{handle: NewOrderStatusChangedHandler(tracking).Handle, logger: logging.New("test")}
	mark := h.process(ctx, &sarama.ConsumerMessage{Topic: "orders.status", Value: []byte(`{"orderNumber":" ORD-1 ","status":"Dispatched"}`)})
	assert.True(t, mark)

	o, ok, err := rc.Get(ctx, "ORD-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entity.StatusShipped, o.Status)
}

func TestProcess_MarksPoison(t *testing.T) {
	calls := 0
	h := &cgHandler{logger: logging.New("test"), handle: func(_ context.Context, ev usecase.OrderStatusChangedMsg) error {
		calls++
		switch ev.Status {
		case "lost":
			return entity.ErrInvalidStatus
		case "retry":
			return errors.New("redis timeout")
		}
		return nil
	}}
	ctx := context.Background()

	assert.True(t, h.process(ctx, &sarama.ConsumerMessage{Value: []byte(`{`)}))
	assert.Equal(t, 0, calls)
	assert.True(t, h.process(ctx, &sarama.ConsumerMessage{Value: []byte(`{"orderNumber":"X","status":"lost"}`)}))
	assert.False(t, h.process(ctx, &sarama.ConsumerMessage{Value: []byte(`{"orderNumber":"X","status":"retry"}`)}))
}

func TestOrderStatusChangedHandler_Aliases(t *testing.T) {
	var got usecase.OrderStatusChangedMsg
	h := NewOrderStatusChangedHandler(sinkFunc(func(_ context.Context, m usecase.OrderStatusChangedMsg) error {
		got = m
		return nil
	}))

	require.NoError(t, h.Handle(context.Background(), usecase.OrderStatusChangedMsg{OrderNumber: "A", Status: "CANCELED"}))
	assert.Equal(t, "cancelled", got.Status)
}

type sinkFunc func(context.Context, usecase.OrderStatusChangedMsg) error

func (f sinkFunc) HandleStatusChanged(ctx context.Context, m usecase.OrderStatusChangedMsg) error {
	return f(ctx, m)
}
