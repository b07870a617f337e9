package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

// Mutation is the result of a cart change. Cart is always the in-memory result;
// Persisted reports whether the backend accepted it.
type Mutation struct {
	Cart      entity.Cart `json:"cart"`
	Persisted bool        `json:"persisted"`
}

type CartStoreOption func(*CartStore)

func WithRetryPolicy(p RetryPolicy) CartStoreOption {
	return func(s *CartStore) { s.retry = p }
}

func WithTelemetry(t Telemetry) CartStoreOption {
	return func(s *CartStore) { s.tel = t }
}

func WithHub(h *ChangeHub) CartStoreOption {
	return func(s *CartStore) { s.hub = h }
}

// CartStore owns cart reads and mutations for any identity. The backend is picked
// from the identity on every call.
type CartStore struct {
	guest   CartBackend
	authed  CartBackend
	catalog ProductCatalog
	hub     *ChangeHub
	tel     Telemetry
	retry   RetryPolicy

	locksMu sync.Mutex
	locks   map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewCartStore(guest, authed CartBackend, catalog ProductCatalog, opts ...CartStoreOption) *CartStore {
	s := &CartStore{
		guest:   guest,
		authed:  authed,
		catalog: catalog,
		hub:     NewChangeHub(),
		tel:     NopTelemetry{},
		locks:   make(map[string]*keyLock),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *CartStore) backend(id entity.Identity) CartBackend {
	if id.Authenticated() {
		return s.authed
	}
	return s.guest
}

func (s *CartStore) Load(ctx context.Context, id entity.Identity) (entity.Cart, error) {
	c, err := s.backend(id).Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c.Normalize(), nil
}

// Save persists cart, retrying per the policy, and broadcasts it on success.
func (s *CartStore) Save(ctx context.Context, id entity.Identity, cart entity.Cart) error {
	b := s.backend(id)
	var err error
	for attempt := 0; attempt <= s.retry.Retries; attempt++ {
		if attempt > 0 && s.retry.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retry.Backoff):
			}
		}
		if err = b.Save(ctx, id, cart); err == nil {
			s.hub.Publish(id.Key(), cart)
			return nil
		}
	}
	return fmt.Errorf("save cart (%s): %w", b.Name(), err)
}

func (s *CartStore) AddItem(ctx context.Context, id entity.Identity, productID int64, qty int) (Mutation, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return Mutation{}, err
	}
	if !p.Available {
		return Mutation{}, invalid(ErrProductUnavailable, "This product is currently unavailable.")
	}
	item := entity.CartItem{ID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty, Image: p.Image}
	return s.mutate(ctx, id, func(c entity.Cart) entity.Cart { return c.Add(item) })
}

// UpdateQuantity applies delta; a quantity at or below zero removes the line.
func (s *CartStore) UpdateQuantity(ctx context.Context, id entity.Identity, productID int64, delta int) (Mutation, error) {
	return s.mutate(ctx, id, func(c entity.Cart) entity.Cart { return c.UpdateQuantity(productID, delta) })
}

func (s *CartStore) RemoveItem(ctx context.Context, id entity.Identity, productID int64) (Mutation, error) {
	return s.mutate(ctx, id, func(c entity.Cart) entity.Cart { return c.Remove(productID) })
}

// Clear saves an empty cart.
func (s *CartStore) Clear(ctx context.Context, id entity.Identity) (Mutation, error) {
	return s.mutate(ctx, id, func(entity.Cart) entity.Cart { return entity.Cart{} })
}

// mutate runs a read-modify-write under the identity's lock. A failed save is
// logged and swallowed; the caller still gets the in-memory cart.
func (s *CartStore) mutate(ctx context.Context, id entity.Identity, fn func(entity.Cart) entity.Cart) (Mutation, error) {
	unlock := s.lock(id.Key())
	defer unlock()

	cur, err := s.Load(ctx, id)
	if err != nil {
		return Mutation{}, err
	}
	next := fn(cur).Normalize()

	if err := s.Save(ctx, id, next); err != nil {
		if errors.Is(err, context.Canceled) {
			return Mutation{}, err
		}
		logging.FromCtx(ctx).Warn("cart save failed",
			"backend", s.backend(id).Name(), "err", err)
		s.tel.CartSaveFailed(s.backend(id).Name())
		s.hub.Publish(id.Key(), next)
		return Mutation{Cart: next, Persisted: false}, nil
	}
	return Mutation{Cart: next, Persisted: true}, nil
}

// Subscribe merges same-process changes with the backend's own change feed and
// drops consecutive duplicates. The channel closes when ctx is done.
func (s *CartStore) Subscribe(ctx context.Context, id entity.Identity) (<-chan entity.Cart, error) {
	remote, err := s.backend(id).Subscribe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("subscribe cart: %w", err)
	}
	local := s.hub.Subscribe(ctx, id.Key())

	out := make(chan entity.Cart, 1)
	go func() {
		defer close(out)
		var last entity.Cart
		seen := false
		for local != nil || remote != nil {
			var c entity.Cart
			var ok bool
			select {
			case <-ctx.Done():
				return
			case c, ok = <-local:
				if !ok {
					local = nil
					continue
				}
			case c, ok = <-remote:
				if !ok {
					remote = nil
					continue
				}
			}
			c = c.Normalize()
			if seen && c.Equal(last) {
				continue
			}
			seen, last = true, c
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *CartStore) lock(key string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.locksMu.Unlock()
	}
}
