package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

const maxRememberedOrders = 50

// RedisCache holds what the storefront knows about placed orders: one hash per
// order and a recency-ordered set of order numbers per customer email.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func orderKey(n string) string        { return "order:" + n }
func customerKey(email string) string { return "orders:" + entity.NormalizeEmail(email) }

func (r RedisCache) Get(ctx context.Context, orderNumber string) (entity.TrackedOrder, bool, error) {
	m, err := r.rdb.HGetAll(ctx, orderKey(orderNumber)).Result()
	if err != nil {
		return entity.TrackedOrder{}, false, fmt.Errorf("redis hgetall failed: %w", err)
	}
	// A status update can arrive before the order itself was cached.
	if m["order_number"] == "" {
		return entity.TrackedOrder{}, false, nil
	}
	return fromHash(m), true, nil
}

func (r RedisCache) Put(ctx context.Context, o entity.TrackedOrder) error {
	key := orderKey(o.OrderNumber)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, toHash(o))
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put order failed: %w", err)
	}
	return nil
}

func (r RedisCache) SetStatus(ctx context.Context, orderNumber string, status entity.Status) error {
	key := orderKey(orderNumber)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "status", string(status))
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set status failed: %w", err)
	}
	return nil
}

// Remember caches o and files it under the customer's email, keeping the most
// recent orders only.
func (r RedisCache) Remember(ctx context.Context, email string, o entity.TrackedOrder) error {
	if err := r.Put(ctx, o); err != nil {
		return err
	}
	return r.file(ctx, email, o)
}

// Seed writes a newly placed order. A status already stored, for example by a
// status change that overtook the order event, is kept.
func (r RedisCache) Seed(ctx context.Context, email string, o entity.TrackedOrder) error {
	key := orderKey(o.OrderNumber)
	fields := toHash(o)
	delete(fields, "status")
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, key, "status", string(o.Status))
		p.HSet(ctx, key, fields)
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis seed order failed: %w", err)
	}
	if email == "" {
		return nil
	}
	return r.file(ctx, email, o)
}

func (r RedisCache) file(ctx context.Context, email string, o entity.TrackedOrder) error {
	placed := o.PlacedAt
	if placed.IsZero() {
		placed = time.Now()
	}
	key := customerKey(email)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{Score: float64(placed.Unix()), Member: o.OrderNumber})
		p.ZRemRangeByRank(ctx, key, 0, -maxRememberedOrders-1)
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remember order failed: %w", err)
	}
	return nil
}

// Orders returns the customer's remembered orders, newest first.
func (r RedisCache) Orders(ctx context.Context, email string) ([]entity.TrackedOrder, error) {
	numbers, err := r.rdb.ZRevRange(ctx, customerKey(email), 0, maxRememberedOrders-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange failed: %w", err)
	}
	if len(numbers) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(numbers))
	_, err = r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, n := range numbers {
			cmds[i] = p.HGetAll(ctx, orderKey(n))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis read orders failed: %w", err)
	}

	out := make([]entity.TrackedOrder, 0, len(numbers))
	for i, cmd := range cmds {
		m := cmd.Val()
		if m["order_number"] == "" {
			out = append(out, entity.TrackedOrder{OrderNumber: numbers[i]})
			continue
		}
		out = append(out, fromHash(m))
	}
	return out, nil
}

func toHash(o entity.TrackedOrder) map[string]any {
	h := map[string]any{
		"order_number": o.OrderNumber,
		"status":       string(o.Status),
		"final_amount": o.FinalAmount.String(),
	}
	if o.Email != "" {
		h["email"] = entity.NormalizeEmail(o.Email)
	}
	if !o.PlacedAt.IsZero() {
		h["placed_at"] = o.PlacedAt.UTC().Format(time.RFC3339Nano)
	}
	return h
}

func fromHash(m map[string]string) entity.TrackedOrder {
	o := entity.TrackedOrder{
		OrderNumber: m["order_number"],
		Email:       m["email"],
		Status:      entity.Status(m["status"]),
	}
	if d, err := decimal.NewFromString(m["final_amount"]); err == nil {
		o.FinalAmount = d
	}
	if t, err := time.Parse(time.RFC3339Nano, m["placed_at"]); err == nil {
		o.PlacedAt = t
	}
	return o
}

var _ usecase.OrderStatusCache = (*RedisCache)(nil)
