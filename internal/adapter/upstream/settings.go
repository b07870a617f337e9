package upstream

import (
	"context"
	"net/http"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type SettingsClient struct{ c *Client }

func NewSettingsClient(c *Client) *SettingsClient { return &SettingsClient{c: c} }

func (s *SettingsClient) ShippingRate(ctx context.Context) (float64, error) {
	var out struct {
		Rate float64 `json:"rate"`
	}
	if err := s.c.call(ctx, http.MethodGet, "/api/settings/shipping", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Rate, nil
}

var _ usecase.ShippingSettings = (*SettingsClient)(nil)
