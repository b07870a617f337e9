package usecase

import (
	"context"
	"sync"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

// ChangeHub fans out "cart changed" notifications inside this process.
// Slow subscribers only ever see the latest cart.
type ChangeHub struct {
	mu   sync.Mutex
	subs map[string]map[chan entity.Cart]struct{}
}

func NewChangeHub() *ChangeHub {
	return &ChangeHub{subs: make(map[string]map[chan entity.Cart]struct{})}
}

func (h *ChangeHub) Publish(key string, cart entity.Cart) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cart.Clone():
		default:
		}
	}
}

// Subscribe returns a feed for key that is closed once ctx is done.
func (h *ChangeHub) Subscribe(ctx context.Context, key string) <-chan entity.Cart {
	ch := make(chan entity.Cart, 1)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan entity.Cart]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[key], ch)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *ChangeHub) subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key])
}
