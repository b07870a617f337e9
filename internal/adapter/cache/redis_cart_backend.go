package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

var ErrWrongIdentity = errors.New("cart backend does not serve this identity")

// cartDoc is the realtime cart document: one per lower-cased email.
type cartDoc struct {
	Cart      entity.Cart `json:"cart"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RedisCartBackend keeps carts in Redis and announces every write on a channel
// so other tabs and instances see it. Guest carts are stored as a bare JSON
// list per device; account carts as a document per email.
type RedisCartBackend struct {
	rdb   *redis.Client
	name  string
	ttl   time.Duration
	doc   bool
	keyOf func(entity.Identity) (string, error)
	now   func() time.Time
}

// NewGuestCartBackend stores device carts that expire after ttl without writes.
func NewGuestCartBackend(rdb *redis.Client, ttl time.Duration) *RedisCartBackend {
	return &RedisCartBackend{
		rdb:  rdb,
		name: "guest",
		ttl:  ttl,
		keyOf: func(id entity.Identity) (string, error) {
			g, ok := id.(entity.Guest)
			if !ok || g.DeviceID == "" {
				return "", ErrWrongIdentity
			}
			return "guestCart:" + g.DeviceID, nil
		},
		now: time.Now,
	}
}

func NewRealtimeCartBackend(rdb *redis.Client) *RedisCartBackend {
	return &RedisCartBackend{
		rdb:  rdb,
		name: "realtime",
		doc:  true,
		keyOf: func(id entity.Identity) (string, error) {
			u, ok := id.(entity.Authenticated)
			if !ok || u.Email == "" {
				return "", ErrWrongIdentity
			}
			return "carts:" + entity.NormalizeEmail(u.Email), nil
		},
		now: time.Now,
	}
}

func (b *RedisCartBackend) Name() string { return b.name }

func changesChannel(key string) string { return key + ":changes" }

func (b *RedisCartBackend) Load(ctx context.Context, id entity.Identity) (entity.Cart, error) {
	key, err := b.keyOf(id)
	if err != nil {
		return nil, err
	}
	data, err := b.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	cart, err := b.decode(data)
	if err != nil {
		logging.FromCtx(ctx).Warn("resetting corrupted cart", "backend", b.name, "key", key, "err", err)
		if derr := b.rdb.Del(ctx, key).Err(); derr != nil {
			return nil, fmt.Errorf("redis delete failed: %w", derr)
		}
		return entity.Cart{}, nil
	}
	return cart, nil
}

func (b *RedisCartBackend) Save(ctx context.Context, id entity.Identity, cart entity.Cart) error {
	key, err := b.keyOf(id)
	if err != nil {
		return err
	}
	data, err := b.encode(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	_, err = b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, data, b.ttl)
		p.Publish(ctx, changesChannel(key), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save failed: %w", err)
	}
	return nil
}

// Subscribe streams carts published for this identity until ctx is done.
func (b *RedisCartBackend) Subscribe(ctx context.Context, id entity.Identity) (<-chan entity.Cart, error) {
	key, err := b.keyOf(id)
	if err != nil {
		return nil, err
	}
	ps := b.rdb.Subscribe(ctx, changesChannel(key))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	out := make(chan entity.Cart, 1)
	msgs := ps.Channel()
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				cart, err := b.decode([]byte(m.Payload))
				if err != nil {
					logging.FromCtx(ctx).Warn("skipping corrupted cart update", "backend", b.name, "err", err)
					continue
				}
				select {
				case out <- cart:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisCartBackend) encode(cart entity.Cart) ([]byte, error) {
	if b.doc {
		return json.Marshal(cartDoc{Cart: cart, UpdatedAt: b.now().UTC()})
	}
	return json.Marshal(cart)
}

func (b *RedisCartBackend) decode(data []byte) (entity.Cart, error) {
	if b.doc {
		var d cartDoc
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		if d.Cart == nil {
			d.Cart = entity.Cart{}
		}
		return d.Cart, nil
	}
	var c entity.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c == nil {
		c = entity.Cart{}
	}
	return c, nil
}

var _ usecase.CartBackend = (*RedisCartBackend)(nil)
