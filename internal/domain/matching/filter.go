package matching

import (
	"math"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
)

type predicate struct {
	name string
	pass func(Candidate) bool
}

// predicates builds the active predicates in evaluation order. Cheap exact
// checks come first; the result does not depend on the order.
func (c Criteria) predicates() []predicate {
	var ps []predicate

	if c.ServiceKind != nil {
		kind := *c.ServiceKind
		ps = append(ps, predicate{"service_kind", func(cd Candidate) bool {
			return cd.Provider.OffersActive(kind)
		}})
	}

	if len(c.ServiceKinds) > 0 {
		kinds := c.ServiceKinds
		ps = append(ps, predicate{"service_kinds", func(cd Candidate) bool {
			for _, k := range kinds {
				if cd.Provider.OffersActive(k) {
					return true
				}
			}
			return false
		}})
	}

	if c.PetKind != nil {
		kind := *c.PetKind
		ps = append(ps, predicate{"pet_kind", func(cd Candidate) bool {
			return cd.Provider.AcceptsPetKind(kind)
		}})
	}

	if len(c.WeightsKg) > 0 {
		buckets := requestedBuckets(c.WeightsKg)
		ps = append(ps, predicate{"weight", func(cd Candidate) bool {
			for _, b := range buckets {
				if !cd.Provider.AcceptsSizeBucket(b) {
					return false
				}
			}
			return true
		}})
	}

	if c.IncludesIntactPet {
		ps = append(ps, predicate{"neutered", func(cd Candidate) bool {
			return !cd.Provider.NeuteredOnly
		}})
	}

	if c.MinPriceCents != nil || c.MaxPriceCents != nil {
		lo, hi := int64(0), int64(math.MaxInt64)
		if c.MinPriceCents != nil {
			lo = *c.MinPriceCents
		}
		if c.MaxPriceCents != nil {
			hi = *c.MaxPriceCents
		}
		ps = append(ps, predicate{"price", func(cd Candidate) bool {
			return hasPricedServiceIn(cd.Provider, lo, hi)
		}})
	}

	if c.VerifiedOnly {
		ps = append(ps, predicate{"verified", func(cd Candidate) bool {
			return cd.Provider.Verified
		}})
	}

	if c.MinRating != nil {
		threshold := *c.MinRating
		ps = append(ps, predicate{"min_rating", func(cd Candidate) bool {
			mean, count := cd.Provider.RatingSummary()
			return count > 0 && mean >= threshold
		}})
	}

	if c.HasReviews {
		ps = append(ps, predicate{"has_reviews", func(cd Candidate) bool {
			return len(cd.Provider.Reviews) > 0
		}})
	}

	if c.MinExperience != nil {
		threshold := *c.MinExperience
		ps = append(ps, predicate{"min_experience", func(cd Candidate) bool {
			return cd.Provider.ExperienceYears >= threshold
		}})
	}

	if c.MaxDistanceKm != nil {
		limit := *c.MaxDistanceKm
		ps = append(ps, predicate{"max_distance", func(cd Candidate) bool {
			// Without an origin there is no distance to check.
			return cd.DistanceKm == nil || *cd.DistanceKm <= limit
		}})
	}

	return ps
}

// Filter keeps the candidates that pass every active predicate, in input order.
// An empty result is a valid answer, not an error. Candidates with a nil
// Provider are always dropped, even for empty criteria; Select and Unranked
// never produce them, so their output passes through empty criteria unchanged.
func Filter(candidates []Candidate, criteria Criteria) ([]Candidate, error) {
	out, _, err := FilterWithStats(candidates, criteria)
	return out, err
}

// FilterWithStats is Filter plus a count of candidates removed by each predicate,
// keyed by predicate name. A candidate is attributed to the first predicate it fails.
// Dropped nil-Provider candidates are not counted.
func FilterWithStats(candidates []Candidate, criteria Criteria) ([]Candidate, map[string]int, error) {
	if err := criteria.Validate(); err != nil {
		return nil, nil, err
	}

	ps := criteria.predicates()
	rejected := make(map[string]int)
	out := make([]Candidate, 0, len(candidates))
	for _, cd := range candidates {
		if cd.Provider == nil {
			continue
		}
		if failed, ok := firstFailing(cd, ps); ok {
			rejected[failed]++
			continue
		}
		out = append(out, cd)
	}
	return out, rejected, nil
}

func firstFailing(cd Candidate, ps []predicate) (string, bool) {
	for _, p := range ps {
		if !p.pass(cd) {
			return p.name, true
		}
	}
	return "", false
}

func requestedBuckets(weights []float64) []provider.SizeBucket {
	seen := make(map[provider.SizeBucket]bool, len(weights))
	buckets := make([]provider.SizeBucket, 0, len(weights))
	for _, w := range weights {
		b := provider.SizeBucketFor(w)
		if !seen[b] {
			seen[b] = true
			buckets = append(buckets, b)
		}
	}
	return buckets
}

func hasPricedServiceIn(p *provider.Provider, lo, hi int64) bool {
	for _, offer := range p.Services {
		if offer.Priced() && offer.RateCents >= lo && offer.RateCents <= hi {
			return true
		}
	}
	return false
}
