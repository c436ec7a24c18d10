// Package geo holds coordinate types and great-circle distance.
package geo

import (
	"fmt"
	"math"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects non-finite or out-of-range coordinates.
func (c Coordinate) Validate() error {
	if !isFinite(c.Lat) || !isFinite(c.Lng) {
		return domain.NewValidationError("coordinates must be finite numbers")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return domain.NewValidationError(fmt.Sprintf("latitude %v out of range [-90, 90]", c.Lat))
	}
	if c.Lng < -180 || c.Lng > 180 {
		return domain.NewValidationError(fmt.Sprintf("longitude %v out of range [-180, 180]", c.Lng))
	}
	return nil
}

// DistanceKm returns the haversine great-circle distance between a and b.
// It never fails; NaN or Inf inputs produce NaN, so callers validate first.
func DistanceKm(a, b Coordinate) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	lat1Rad := degreesToRadians(a.Lat)
	lat2Rad := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(h, 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
