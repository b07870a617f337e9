// Package observ exports core checkout events as Prometheus metrics.
package observ

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

type Telemetry struct {
	quotes     prometheus.Histogram
	coupons    *prometheus.CounterVec
	orders     *prometheus.CounterVec
	saveFailed *prometheus.CounterVec
}

// NewTelemetry registers its collectors on reg; pass prometheus.DefaultRegisterer
// to expose them on /metrics.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	f := promauto.With(reg)
	return &Telemetry{
		quotes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_shipping_quote_distance_km",
			Help:    "Road-less distance of computed shipping quotes",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250},
		}),
		coupons: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_coupon_checks_total",
			Help: "Coupon validations by result",
		}, []string{"valid"}),
		orders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_orders_submitted_total",
			Help: "Order submissions by outcome",
		}, []string{"ok"}),
		saveFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_save_failures_total",
			Help: "Cart writes that could not be persisted",
		}, []string{"backend"}),
	}
}

func (t *Telemetry) QuoteComputed(distanceKm float64) { t.quotes.Observe(distanceKm) }
func (t *Telemetry) CouponChecked(valid bool)         { t.coupons.WithLabelValues(strconv.FormatBool(valid)).Inc() }
func (t *Telemetry) OrderSubmitted(ok bool)           { t.orders.WithLabelValues(strconv.FormatBool(ok)).Inc() }
func (t *Telemetry) CartSaveFailed(backend string)    { t.saveFailed.WithLabelValues(backend).Inc() }

var _ usecase.Telemetry = (*Telemetry)(nil)
