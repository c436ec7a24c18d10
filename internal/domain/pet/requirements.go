package pet

import (
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
)

// Requirements summarizes what a group of pets asks of a provider.
type Requirements struct {
	Species   []string  `json:"species"`
	WeightsKg []float64 `json:"weights_kg"`
	AnyIntact bool      `json:"any_intact"`
}

// DetermineRequirements derives search requirements from the given pets.
// Species are de-duplicated and keep first-seen order.
func DetermineRequirements(pets []*Pet) Requirements {
	var req Requirements
	seenSpecies := make(map[string]bool)

	for _, p := range pets {
		if p == nil {
			continue
		}
		kind := provider.CapitalizeKind(p.species)
		if !seenSpecies[kind] {
			seenSpecies[kind] = true
			req.Species = append(req.Species, kind)
		}

		req.WeightsKg = append(req.WeightsKg, p.weightKg)

		if !p.neutered {
			req.AnyIntact = true
		}
	}
	return req
}
