package geo

import (
	"math"

	"github.com/example/sitter-hub/internal/models"
)

// UnknownDistance is returned when either endpoint has no resolved
// coordinate. It is large enough to push such profiles to the end of any
// proximity ranking without special-casing them.
const UnknownDistance = 999.0

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between two coordinates in
// kilometers, rounded to two decimals. Missing or partial coordinates yield
// UnknownDistance; the function never fails.
func Distance(a, b *models.Coordinate) float64 {
	if !a.Resolved() || !b.Resolved() {
		return UnknownDistance
	}
	d := Haversine(*a.Lat, *a.Lng, *b.Lat, *b.Lng)
	return math.Round(d*100) / 100
}

// Haversine distance in kilometers between raw coordinate pairs.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
