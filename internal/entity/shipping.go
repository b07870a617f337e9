package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	DefaultRatePerKm  = 5.0
	DefaultMinimumFee = 10.0
)

// QuoteFee maps a distance to a delivery fee: ceil(distance*rate), never below minimumFee.
func QuoteFee(distanceKm, ratePerKm, minimumFee float64) float64 {
	fee := math.Ceil(distanceKm * ratePerKm)
	if fee < minimumFee {
		fee = minimumFee
	}
	return fee
}

type ShippingQuote struct {
	DistanceKm float64         `json:"distance_km"`
	Fee        decimal.Decimal `json:"fee"`
}

// FeePolicy quotes deliveries from a fixed origin. Coordinates are taken as given.
type FeePolicy struct {
	Origin     GeoPoint
	RatePerKm  float64
	MinimumFee float64
}

func (p FeePolicy) Quote(dest GeoPoint) ShippingQuote {
	d := Distance(p.Origin, dest)
	return ShippingQuote{
		DistanceKm: d,
		Fee:        decimal.NewFromFloat(QuoteFee(d, p.RatePerKm, p.MinimumFee)),
	}
}
