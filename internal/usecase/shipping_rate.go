package usecase

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
)

// RateLoader fetches the per-km delivery rate. Concurrent sessions starting at
// the same time share one upstream call; any failure yields the default rate.
type RateLoader struct {
	settings ShippingSettings
	fallback float64
	group    singleflight.Group
}

func NewRateLoader(settings ShippingSettings, fallback float64) *RateLoader {
	return &RateLoader{settings: settings, fallback: fallback}
}

func (l *RateLoader) Rate(ctx context.Context) float64 {
	v, err, _ := l.group.Do("shipping-rate", func() (any, error) {
		return l.settings.ShippingRate(ctx)
	})
	if err != nil {
		logging.FromCtx(ctx).Warn("shipping rate unavailable, using default",
			"default", l.fallback, "err", err)
		return l.fallback
	}
	rate := v.(float64)
	if rate < 0 {
		logging.FromCtx(ctx).Warn("shipping rate negative, using default",
			"rate", rate, "default", l.fallback)
		return l.fallback
	}
	return rate
}
