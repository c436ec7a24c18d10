package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// Criteria is the set of optional search constraints. A nil pointer, an empty
// slice or a false flag leaves the corresponding predicate inactive.
type Criteria struct {
	ServiceKind   *string   `json:"service_kind,omitempty"`
	ServiceKinds  []string  `json:"service_kinds,omitempty"`
	PetKind       *string   `json:"pet_kind,omitempty"`
	WeightsKg     []float64 `json:"weights_kg,omitempty"`
	MinPriceCents *int64    `json:"min_price_cents,omitempty"`
	MaxPriceCents *int64    `json:"max_price_cents,omitempty"`
	VerifiedOnly  bool      `json:"verified_only,omitempty"`
	MinRating     *float64  `json:"min_rating,omitempty"`
	HasReviews    bool      `json:"has_reviews,omitempty"`
	MinExperience *float64  `json:"min_experience,omitempty"`
	MaxDistanceKm *float64  `json:"max_distance_km,omitempty"`

	// IncludesIntactPet is set when at least one pet in the request is not
	// neutered; providers that take neutered pets only are then excluded.
	IncludesIntactPet bool `json:"includes_intact_pet,omitempty"`
}

// Validate rejects malformed criteria before any filtering happens.
func (c Criteria) Validate() error {
	if c.ServiceKind != nil && strings.TrimSpace(*c.ServiceKind) == "" {
		return domain.NewValidationError("service_kind must not be empty")
	}
	for _, k := range c.ServiceKinds {
		if strings.TrimSpace(k) == "" {
			return domain.NewValidationError("service_kinds must not contain empty values")
		}
	}
	if c.PetKind != nil && strings.TrimSpace(*c.PetKind) == "" {
		return domain.NewValidationError("pet_kind must not be empty")
	}
	for _, w := range c.WeightsKg {
		if !isFinite(w) || w <= 0 {
			return domain.NewValidationError(fmt.Sprintf("weight %v must be a positive number", w))
		}
	}
	if c.MinPriceCents != nil && *c.MinPriceCents < 0 {
		return domain.NewValidationError("min_price must not be negative")
	}
	if c.MaxPriceCents != nil && *c.MaxPriceCents < 0 {
		return domain.NewValidationError("max_price must not be negative")
	}
	if c.MinPriceCents != nil && c.MaxPriceCents != nil && *c.MinPriceCents > *c.MaxPriceCents {
		return domain.NewValidationError("min_price must not exceed max_price")
	}
	if c.MinRating != nil && (!isFinite(*c.MinRating) || *c.MinRating < 0 || *c.MinRating > 5) {
		return domain.NewValidationError("min_rating must be between 0 and 5")
	}
	if c.MinExperience != nil && (!isFinite(*c.MinExperience) || *c.MinExperience < 0) {
		return domain.NewValidationError("min_experience must not be negative")
	}
	if c.MaxDistanceKm != nil && (!isFinite(*c.MaxDistanceKm) || *c.MaxDistanceKm < 0) {
		return domain.NewValidationError("max_distance must not be negative")
	}
	return nil
}

// IsEmpty reports whether no predicate is active.
func (c Criteria) IsEmpty() bool {
	return len(c.predicates()) == 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
