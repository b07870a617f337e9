package entity

import "math"

const EarthRadiusKm = 6371.0

// GeoPoint is a delivery destination or the shop's fixed origin.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the great-circle distance between two points in kilometres.
func Distance(origin, dest GeoPoint) float64 {
	lat1 := deg2rad(origin.Lat)
	lat2 := deg2rad(dest.Lat)
	dLat := deg2rad(dest.Lat - origin.Lat)
	dLng := deg2rad(dest.Lng - origin.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180
}
