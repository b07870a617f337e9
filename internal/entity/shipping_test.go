package entity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var shop = GeoPoint{Lat: 30.9432184, Lng: 75.8584566}

func TestDistance_IdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, Distance(shop, shop))
}

func TestDistance_SymmetricAndNonNegative(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a := GeoPoint{Lat: r.Float64()*180 - 90, Lng: r.Float64()*360 - 180}
		b := GeoPoint{Lat: r.Float64()*180 - 90, Lng: r.Float64()*360 - 180}
		ab, ba := Distance(a, b), Distance(b, a)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.InDelta(t, ab, ba, 1e-9)
		assert.Equal(t, 0.0, Distance(a, a))
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// one degree of latitude along a meridian
	d := Distance(GeoPoint{Lat: 0, Lng: 0}, GeoPoint{Lat: 1, Lng: 0})
	assert.InDelta(t, 6371*math.Pi/180, d, 1e-9)
}

func TestQuoteFee(t *testing.T) {
	cases := []struct {
		km   float64
		want float64
	}{
		{0, 10},
		{0.1, 10},
		{1.0, 10},
		{2.0, 10},
		{3.0, 15},
		{3.01, 16},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, QuoteFee(tc.km, 5.0, 10), "km=%v", tc.km)
	}
}

func TestFeePolicy_QuoteFromOrigin(t *testing.T) {
	p := FeePolicy{Origin: shop, RatePerKm: DefaultRatePerKm, MinimumFee: DefaultMinimumFee}

	q := p.Quote(shop)
	assert.Equal(t, 0.0, q.DistanceKm)
	assert.Equal(t, "10", q.Fee.String())

	far := GeoPoint{Lat: shop.Lat + 0.1, Lng: shop.Lng}
	q = p.Quote(far)
	assert.InDelta(t, 11.12, q.DistanceKm, 0.01)
	assert.Equal(t, "56", q.Fee.String())
}

func TestMapLink(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/maps/search/?api=1&query=30.9432184,75.8584566",
		MapLink(shop))
	assert.Equal(t, "Map Location: x", MapAddress("x"))
}
