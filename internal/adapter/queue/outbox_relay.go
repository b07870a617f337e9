package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/repo"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

type OutboxSource interface {
	FetchPending(ctx context.Context, limit int) ([]repo.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, delay time.Duration) error
	MarkFailed(ctx context.Context, id int64) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

var routes = map[string]string{
	repo.ChannelOrderPlaced: RoutingKeyPlaced,
}

// OutboxRelay moves pending outbox rows onto the broker. Delivery is
// at-least-once: a crash between publish and mark republishes.
type OutboxRelay struct {
	src        OutboxSource
	pub        Publisher
	interval   time.Duration
	batch      int
	maxRetries int
	timeout    time.Duration
	log        *slog.Logger
}

type RelayOption func(*OutboxRelay)

func WithInterval(d time.Duration) RelayOption { return func(r *OutboxRelay) { r.interval = d } }
func WithBatch(n int) RelayOption              { return func(r *OutboxRelay) { r.batch = n } }
func WithMaxRetries(n int) RelayOption         { return func(r *OutboxRelay) { r.maxRetries = n } }

// NewOutboxRelay defaults: every 2s, 50 rows, 8 retries.
func NewOutboxRelay(src OutboxSource, pub Publisher, opts ...RelayOption) *OutboxRelay {
	r := &OutboxRelay{
		src:        src,
		pub:        pub,
		interval:   2 * time.Second,
		batch:      50,
		maxRetries: 8,
		timeout:    5 * time.Second,
		log:        logging.New("outbox-relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info("relay started", "interval", r.interval, "batch", r.batch)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopped")
			return
		case <-t.C:
			r.Flush(ctx)
		}
	}
}

// Flush publishes one batch and returns how many events went out.
func (r *OutboxRelay) Flush(ctx context.Context) int {
	events, err := r.src.FetchPending(ctx, r.batch)
	if err != nil {
		r.log.Error("fetch pending", "err", err)
		return 0
	}

	sent := 0
	for _, ev := range events {
		if ctx.Err() != nil {
			break
		}
		if r.relay(ctx, ev) {
			sent++
		}
	}
	return sent
}

func (r *OutboxRelay) relay(ctx context.Context, ev repo.OutboxEvent) bool {
	l := r.log.With("id", ev.ID, "channel", ev.Channel)

	key, ok := routes[ev.Channel]
	if !ok {
		l.Error("no route for channel")
		if err := r.src.MarkFailed(ctx, ev.ID); err != nil {
			l.Error("mark failed", "err", err)
		}
		return false
	}

	pctx, cancel := context.WithTimeout(ctx, r.timeout)
	err := r.pub.Publish(pctx, key, ev.Payload)
	cancel()
	if err != nil {
		if ev.RetryCount+1 >= r.maxRetries {
			l.Error("giving up", "err", err, "retries", ev.RetryCount+1)
			if err := r.src.MarkFailed(ctx, ev.ID); err != nil {
				l.Error("mark failed", "err", err)
			}
			return false
		}
		delay := backoff(ev.RetryCount)
		l.Warn("publish failed, will retry", "err", err, "delay", delay)
		if err := r.src.MarkRetry(ctx, ev.ID, delay); err != nil {
			l.Error("mark retry", "err", err)
		}
		return false
	}

	if err := r.src.MarkPublished(ctx, ev.ID); err != nil {
		l.Error("mark published", "err", err)
	}
	return true
}

// backoff doubles from 5s, capped at 10m.
func backoff(retries int) time.Duration {
	d := 5 * time.Second
	for i := 0; i < retries && d < 10*time.Minute; i++ {
		d *= 2
	}
	if d > 10*time.Minute {
		d = 10 * time.Minute
	}
	return d
}
