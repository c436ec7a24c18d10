package booking

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Offer     provider.ServiceOffer
	StartDate civil.Date
	EndDate   civil.Date
}

// DailyRatePricingStrategy charges the offer's rate for every day of the span,
// or its holiday rate on configured holidays when one is set.
type DailyRatePricingStrategy struct {
	holidays map[civil.Date]struct{}
}

// NewDailyRatePricingStrategy creates a strategy with the given holiday calendar.
func NewDailyRatePricingStrategy(holidays []civil.Date) *DailyRatePricingStrategy {
	set := make(map[civil.Date]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return &DailyRatePricingStrategy{holidays: set}
}

// Calculate computes the total price in cents (sen for MYR).
func (s *DailyRatePricingStrategy) Calculate(params PricingParams) (int64, error) {
	if !params.Offer.Priced() {
		return 0, fmt.Errorf("service is not active or has no rate")
	}
	if params.EndDate.Before(params.StartDate) {
		return 0, fmt.Errorf("end date is before start date")
	}

	var totalCents int64
	for d := params.StartDate; !d.After(params.EndDate); d = d.AddDays(1) {
		totalCents += s.rateFor(params.Offer, d)
	}
	return totalCents, nil
}

// IsHoliday reports whether d is on the holiday calendar.
func (s *DailyRatePricingStrategy) IsHoliday(d civil.Date) bool {
	_, ok := s.holidays[d]
	return ok
}

func (s *DailyRatePricingStrategy) rateFor(offer provider.ServiceOffer, d civil.Date) int64 {
	if offer.HolidayRateCents != nil && s.IsHoliday(d) {
		return *offer.HolidayRateCents
	}
	return offer.RateCents
}
