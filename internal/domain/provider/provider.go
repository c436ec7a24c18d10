// Package provider holds the read model of a care provider as the matching core
// sees it. Profiles are edited by another service; this package never mutates them.
package provider

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/geo"
)

// ServiceOffer is one service a provider sells. Rates are in cents.
type ServiceOffer struct {
	Active           bool   `json:"active"`
	RateCents        int64  `json:"rate_cents"`
	HolidayRateCents *int64 `json:"holiday_rate_cents,omitempty"`
}

// Priced reports whether the offer can satisfy a price-range query.
func (o ServiceOffer) Priced() bool {
	return o.Active && o.RateCents > 0
}

// Review is the aggregate-only view of a rating left for a provider.
type Review struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

// Provider is a snapshot of one provider profile.
type Provider struct {
	ID                  uuid.UUID               `json:"id"`
	UserID              uuid.UUID               `json:"user_id"`
	DisplayName         string                  `json:"display_name"`
	Location            *geo.Coordinate         `json:"location,omitempty"`
	Services            map[string]ServiceOffer `json:"services"`
	AcceptedPetKinds    []string                `json:"accepted_pet_kinds"`
	AcceptedSizeBuckets []string                `json:"accepted_size_buckets"`
	NeuteredOnly        bool                    `json:"neutered_only"`
	Verified            bool                    `json:"verified"`
	ExperienceYears     float64                 `json:"experience_years"`
	GeneralAvailability []string                `json:"general_availability"`
	BlockedDates        []civil.Date            `json:"blocked_dates"`
	Reviews             []Review                `json:"reviews,omitempty"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// Service looks up an offer by kind, tolerating case and separator differences.
// An exact key wins. Otherwise, among keys that normalize to the same kind, the
// first active one in key order is returned, else the first in key order.
func (p *Provider) Service(kind string) (ServiceOffer, bool) {
	if offer, ok := p.Services[kind]; ok {
		return offer, true
	}
	want := NormalizeServiceKind(kind)
	var keys []string
	for k := range p.Services {
		if NormalizeServiceKind(k) == want {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ServiceOffer{}, false
	}
	sort.Strings(keys)
	for _, k := range keys {
		if offer := p.Services[k]; offer.Active {
			return offer, true
		}
	}
	return p.Services[keys[0]], true
}

// OffersActive reports whether kind is offered and active.
func (p *Provider) OffersActive(kind string) bool {
	offer, ok := p.Service(kind)
	return ok && offer.Active
}

// RatingSummary returns the mean rating and the number of reviews.
// The mean is 0 when there are no reviews.
func (p *Provider) RatingSummary() (float64, int) {
	if len(p.Reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews)), len(p.Reviews)
}

// IsBlocked reports whether the provider blocked out day d.
func (p *Provider) IsBlocked(d civil.Date) bool {
	for _, b := range p.BlockedDates {
		if b == d {
			return true
		}
	}
	return false
}

// AcceptsPetKind compares kinds after capitalization ("dog" matches "Dog").
func (p *Provider) AcceptsPetKind(kind string) bool {
	want := CapitalizeKind(kind)
	for _, k := range p.AcceptedPetKinds {
		if CapitalizeKind(k) == want {
			return true
		}
	}
	return false
}

// AcceptsSizeBucket reports whether bucket is in the provider's accepted buckets.
func (p *Provider) AcceptsSizeBucket(bucket SizeBucket) bool {
	for _, b := range p.AcceptedSizeBuckets {
		if SizeBucket(CapitalizeKind(b)) == bucket {
			return true
		}
	}
	return false
}
