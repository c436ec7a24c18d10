package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

func TestDistanceKm_KnownPair(t *testing.T) {
	centralPark := Coordinate{Lat: 40.785091, Lng: -73.968285}
	lowerManhattan := Coordinate{Lat: 40.706086, Lng: -73.996864}

	d := DistanceKm(centralPark, lowerManhattan)

	// ~9.109 km on the 6371 km sphere.
	assert.InDelta(t, 9.1, d, 0.05)
}

func TestDistanceKm_IdentityAndSymmetry(t *testing.T) {
	points := []Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 3.139, Lng: 101.6869},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 90, Lng: 0},
		{Lat: -90, Lng: 180},
		{Lat: 51.5074, Lng: -0.1278},
	}

	for _, a := range points {
		assert.Equal(t, 0.0, DistanceKm(a, a), "distance to self for %v", a)
		for _, b := range points {
			assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9, "symmetry for %v %v", a, b)
		}
	}
}

func TestDistanceKm_Antipodal(t *testing.T) {
	d := DistanceKm(Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 0, Lng: 180})
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-6)
}

func TestDistanceKm_NaNPropagates(t *testing.T) {
	d := DistanceKm(Coordinate{Lat: math.NaN(), Lng: 0}, Coordinate{Lat: 0, Lng: 0})
	assert.True(t, math.IsNaN(d))
}

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{"valid", Coordinate{Lat: 40.7, Lng: -73.9}, false},
		{"poles and dateline", Coordinate{Lat: -90, Lng: 180}, false},
		{"nan", Coordinate{Lat: math.NaN(), Lng: 0}, true},
		{"inf", Coordinate{Lat: 0, Lng: math.Inf(1)}, true},
		{"lat out of range", Coordinate{Lat: 91, Lng: 0}, true},
		{"lng out of range", Coordinate{Lat: 0, Lng: -181}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if tt.wantErr {
				assert.True(t, domain.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
