package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

var ErrNotAccount = errors.New("rest cart backend needs a signed-in identity")

// RestCartBackend is the account cart fallback through the shop backend. It
// has no change notifications of its own.
type RestCartBackend struct{ c *Client }

func NewRestCartBackend(c *Client) *RestCartBackend { return &RestCartBackend{c: c} }

func (b *RestCartBackend) Name() string { return "rest" }

func accountEmail(id entity.Identity) (string, error) {
	u, ok := id.(entity.Authenticated)
	if !ok || u.Email == "" {
		return "", ErrNotAccount
	}
	return entity.NormalizeEmail(u.Email), nil
}

func (b *RestCartBackend) Load(ctx context.Context, id entity.Identity) (entity.Cart, error) {
	email, err := accountEmail(id)
	if err != nil {
		return nil, err
	}
	var out struct {
		Success bool        `json:"success"`
		Cart    entity.Cart `json:"cart"`
		Message string      `json:"message"`
	}
	if err := b.c.call(ctx, http.MethodGet, "/api/cart/load", url.Values{"email": {email}}, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%s: load cart: %s", b.c.Name, out.Message)
	}
	if out.Cart == nil {
		return entity.Cart{}, nil
	}
	return out.Cart, nil
}

func (b *RestCartBackend) Save(ctx context.Context, id entity.Identity, cart entity.Cart) error {
	email, err := accountEmail(id)
	if err != nil {
		return err
	}
	in := struct {
		Email string      `json:"email"`
		Cart  entity.Cart `json:"cart"`
	}{Email: email, Cart: cart}
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := b.c.call(ctx, http.MethodPost, "/api/cart/save", nil, in, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%s: save cart: %s", b.c.Name, out.Message)
	}
	return nil
}

// Subscribe yields nothing; the channel closes when ctx is done.
func (b *RestCartBackend) Subscribe(ctx context.Context, id entity.Identity) (<-chan entity.Cart, error) {
	if _, err := accountEmail(id); err != nil {
		return nil, err
	}
	ch := make(chan entity.Cart)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

var _ usecase.CartBackend = (*RestCartBackend)(nil)
