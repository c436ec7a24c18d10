// Package matching narrows a provider pool to the candidates that can serve a
// request: a geospatial selector followed by an ordered predicate pipeline.
package matching

import (
	"sort"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
)

// Candidate is a provider that survived selection. DistanceKm is nil when the
// search had no origin.
type Candidate struct {
	Provider   *provider.Provider `json:"provider"`
	DistanceKm *float64           `json:"distance_km,omitempty"`
}

// Select returns the providers within radiusKm of origin, nearest first. Ties
// are ordered by provider id. Providers without a location never match.
func Select(origin geo.Coordinate, radiusKm float64, providers []*provider.Provider) []Candidate {
	out := make([]Candidate, 0, len(providers))
	for _, p := range providers {
		if p == nil || p.Location == nil {
			continue
		}
		d := geo.DistanceKm(origin, *p.Location)
		if d <= radiusKm {
			out = append(out, Candidate{Provider: p, DistanceKm: &d})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := *out[i].DistanceKm, *out[j].DistanceKm
		if di != dj {
			return di < dj
		}
		return out[i].Provider.ID.String() < out[j].Provider.ID.String()
	})
	return out
}

// Unranked wraps providers as candidates without distance, for searches with no
// origin. Input order is kept.
func Unranked(providers []*provider.Provider) []Candidate {
	out := make([]Candidate, 0, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		out = append(out, Candidate{Provider: p})
	}
	return out
}
