package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ShippingSnapshot is written once when checkout hands off to payment and
// consumed by the payment step. JSON names match the storefront's session record.
type ShippingSnapshot struct {
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	ShippingAddress string          `json:"shippingAddress"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	ZipCode         string          `json:"zipCode"`
	MapLink         string          `json:"googleMapsLink"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	DistanceKm      float64         `json:"distance"`
	CapturedAt      time.Time       `json:"savedAt"`
}

// MapLink is the shareable map URL for a delivery point.
func MapLink(p GeoPoint) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%s,%s",
		strconv.FormatFloat(p.Lat, 'f', -1, 64),
		strconv.FormatFloat(p.Lng, 'f', -1, 64))
}

func MapAddress(link string) string {
	return "Map Location: " + link
}
