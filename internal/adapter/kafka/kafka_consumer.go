package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

// HandlerFunc processes a decoded event.
type HandlerFunc func(ctx context.Context, ev usecase.OrderStatusChangedMsg) error

// Consumer consumes a topic with a single handler.
type Consumer struct {
	Group  sarama.ConsumerGroup
	Topics []string
	Handle HandlerFunc
	Logger *slog.Logger
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:  group,
		Topics: topics,
		Handle: h,
		Logger: logging.New("kafka-consumer"),
	}
}

// Start blocks until ctx is cancelled or the group fails.
func (c *Consumer) Start(ctx context.Context) error {
	go func() {
		for err := range c.Group.Errors() {
			c.Logger.Error("consumer group", "err", err)
		}
	}()

	handler := &cgHandler{handle: c.Handle, logger: c.Logger}
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		// Consume returns on rebalance or cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle HandlerFunc
	logger *slog.Logger
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if h.process(sess.Context(), msg) {
			sess.MarkMessage(msg, "")
		}
	}
	return nil
}

// process reports whether the offset should be committed. Undecodable and
// invalid events are committed so they are not redelivered forever.
func (h *cgHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	l := h.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))

	var ev usecase.OrderStatusChangedMsg
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		l.Warn("kafka decode error", "err", err)
		return true
	}
	err := h.handle(ctx, ev)
	switch {
	case err == nil:
		return true
	case errors.Is(err, entity.ErrInvalidStatus):
		l.Warn("dropping status change", "err", err)
		return true
	default:
		l.Error("handler error", "err", err)
		return false
	}
}
