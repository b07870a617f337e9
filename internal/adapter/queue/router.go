package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

// Router manages multiple consumers (one per registered queue) on a single AMQP channel.
type Router struct {
	ch            *amqp.Channel
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	registrations []registration
	log           *slog.Logger
	wg            sync.WaitGroup
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

// --- Options ---

type RouterOption func(*Router)

func WithPrefetch(n int) RouterOption          { return func(r *Router) { r.prefetch = n } }
func WithTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }
func WithRequeue(b bool) RouterOption          { return func(r *Router) { r.requeueOnErr = b } }

// NewRouter constructs a Router. Defaults: prefetch=50, timeout=10s, requeueOnErr=true.
func NewRouter(ch *amqp.Channel, opts ...RouterOption) *Router {
	r := &Router{
		ch:           ch,
		prefetch:     50,
		callTimeout:  10 * time.Second,
		requeueOnErr: true,
		log:          logging.New("rmq-router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a queue with a handler. Call multiple times for multiple queues.
func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "c_" + queueName,
	})
}

// Start begins consuming; non-blocking (spawns one goroutine per queue).
// Consumers are cancelled when ctx is done; Wait blocks until they drain.
func (r *Router) Start(ctx context.Context) error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	for _, reg := range r.registrations {
		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}

		r.wg.Add(1)
		go func(reg registration, msgs <-chan amqp.Delivery) {
			defer r.wg.Done()
			l := r.log.With("queue", reg.queueName, "tag", reg.consumerTag)
			for d := range msgs {
				r.dispatch(ctx, l, reg.handler, d)
			}
			l.Info("consumer stopped")
		}(reg, deliveries)

		go func(tag string) {
			<-ctx.Done()
			_ = r.ch.Cancel(tag, false)
		}(reg.consumerTag)
	}

	return nil
}

func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) dispatch(ctx context.Context, l *slog.Logger, h Handler, d amqp.Delivery) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.callTimeout)
	err := h.Handle(hctx, d)
	cancel()

	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoison):
		l.Warn("dropping poison message", "rk", d.RoutingKey, "err", err, "body", string(d.Body))
		_ = d.Nack(false, false)
	default:
		l.Error("handler error", "rk", d.RoutingKey, "err", err, "requeue", r.requeueOnErr)
		_ = d.Nack(false, r.requeueOnErr)
	}
}
