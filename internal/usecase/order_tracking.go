package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

// OrderTracking answers "where is my order". The shop backend is the source of
// truth; the cache is a fallback while it is unreachable. With a live status
// feed the cache is kept current by events and answers first.
type OrderTracking struct {
	lookup     OrderLookup
	cache      OrderStatusCache
	statusFeed bool
}

type TrackingOption func(*OrderTracking)

// WithStatusFeed marks the cache as fed by status-change events.
func WithStatusFeed(on bool) TrackingOption {
	return func(t *OrderTracking) { t.statusFeed = on }
}

func NewOrderTracking(lookup OrderLookup, cache OrderStatusCache, opts ...TrackingOption) *OrderTracking {
	t := &OrderTracking{lookup: lookup, cache: cache}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *OrderTracking) Track(ctx context.Context, orderNumber string) (entity.TrackedOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" || orderNumber == "." || orderNumber == ".." {
		return entity.TrackedOrder{}, invalid(ErrOrderNumberRequired, "Please enter an order number.")
	}
	log := logging.FromCtx(ctx)

	if t.statusFeed {
		if o, ok := t.cached(ctx, orderNumber); ok {
			return o, nil
		}
	}

	o, err := t.lookup.TrackOrder(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return entity.TrackedOrder{}, err
		}
		if c, ok := t.cached(ctx, orderNumber); ok {
			log.Warn("serving cached order", "order_number", orderNumber, "err", err)
			return c, nil
		}
		return entity.TrackedOrder{}, err
	}
	if err := t.cache.Put(ctx, o); err != nil {
		log.Warn("order cache write", "order_number", orderNumber, "err", err)
	}
	return o, nil
}

func (t *OrderTracking) cached(ctx context.Context, orderNumber string) (entity.TrackedOrder, bool) {
	o, ok, err := t.cache.Get(ctx, orderNumber)
	if err != nil {
		logging.FromCtx(ctx).Warn("order cache read", "order_number", orderNumber, "err", err)
		return entity.TrackedOrder{}, false
	}
	return o, ok
}

// Mine lists the signed-in user's orders. When the backend is unreachable the
// orders this storefront has seen are returned instead.
func (t *OrderTracking) Mine(ctx context.Context, id entity.Identity) ([]entity.TrackedOrder, error) {
	u, ok := id.(entity.Authenticated)
	if !ok {
		return nil, ErrLoginRequired
	}
	email := entity.NormalizeEmail(u.Email)

	orders, err := t.lookup.OrdersByEmail(ctx, email)
	if err == nil {
		for _, o := range orders {
			if err := t.cache.Remember(ctx, email, o); err != nil {
				logging.FromCtx(ctx).Warn("order cache write", "order_number", o.OrderNumber, "err", err)
				break
			}
		}
		return orders, nil
	}

	cached, cerr := t.cache.Orders(ctx, email)
	if cerr != nil || len(cached) == 0 {
		return nil, err
	}
	logging.FromCtx(ctx).Warn("serving cached orders", "count", len(cached), "err", err)
	return cached, nil
}

func (t *OrderTracking) HandleStatusChanged(ctx context.Context, msg OrderStatusChangedMsg) error {
	st := entity.Status(strings.ToLower(strings.TrimSpace(msg.Status)))
	if msg.OrderNumber == "" || !st.Valid() {
		return fmt.Errorf("status change %q -> %q: %w", msg.OrderNumber, msg.Status, entity.ErrInvalidStatus)
	}
	return t.cache.SetStatus(ctx, msg.OrderNumber, st)
}

// HandleOrderPlaced records a new order as pending unless a status change for
// it has already been seen.
func (t *OrderTracking) HandleOrderPlaced(ctx context.Context, msg OrderPlacedMsg) error {
	o := entity.TrackedOrder{
		OrderNumber: msg.OrderNumber,
		Email:       entity.NormalizeEmail(msg.Email),
		Status:      entity.StatusPending,
		FinalAmount: msg.FinalAmount,
		PlacedAt:    msg.PlacedAt,
	}
	return t.cache.Seed(ctx, o.Email, o)
}
