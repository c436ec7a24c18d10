package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/availability"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/matching"
	petDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/pet"
	providerDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// SearchConfig bounds geo searches.
type SearchConfig struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

// SearchRequest is a provider search. Lat and Lng are both set or both absent;
// without them the search is not geographic and distance criteria are ignored.
type SearchRequest struct {
	Lat      *float64          `json:"lat"`
	Lng      *float64          `json:"lng"`
	RadiusKm *float64          `json:"radius_km"`
	Criteria matching.Criteria `json:"criteria"`
	PetIDs   []uuid.UUID       `json:"pet_ids"`
}

// ProviderMatchDTO is one search hit.
type ProviderMatchDTO struct {
	ID                  uuid.UUID                               `json:"id"`
	DisplayName         string                                  `json:"display_name"`
	DistanceKm          *float64                                `json:"distance_km,omitempty"`
	Location            *geo.Coordinate                         `json:"location,omitempty"`
	Services            map[string]providerDomain.ServiceOffer `json:"services"`
	AcceptedPetKinds    []string                                `json:"accepted_pet_kinds"`
	AcceptedSizeBuckets []string                                `json:"accepted_size_buckets"`
	Verified            bool                                    `json:"verified"`
	ExperienceYears     float64                                 `json:"experience_years"`
	RatingMean          float64                                 `json:"rating_mean"`
	ReviewCount         int                                     `json:"review_count"`
}

// SearchResultDTO is the search response.
type SearchResultDTO struct {
	Items    []ProviderMatchDTO `json:"items"`
	Total    int                `json:"total"`
	Rejected map[string]int     `json:"rejected,omitempty"`
}

// SearchService runs provider searches and availability calendars.
type SearchService struct {
	providers providerDomain.ProviderRepository
	bookings  bookingDomain.BookingRepository
	pets      petDomain.PetRepository
	cfg       SearchConfig
	clock     Clock
	logger    *zap.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(
	providers providerDomain.ProviderRepository,
	bookings bookingDomain.BookingRepository,
	pets petDomain.PetRepository,
	cfg SearchConfig,
	clock Clock,
	logger *zap.Logger,
) *SearchService {
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = 20
	}
	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = 200
	}
	return &SearchService{
		providers: providers,
		bookings:  bookings,
		pets:      pets,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// Search selects providers near the origin (when given) and filters them by
// the request criteria. Pets referenced by id add their species, weight and
// neuter status to the criteria.
func (s *SearchService) Search(ctx context.Context, callerID uuid.UUID, req SearchRequest) (*SearchResultDTO, error) {
	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()
	started := time.Now()

	origin, radius, err := s.resolveOrigin(req)
	if err != nil {
		return nil, err
	}

	criteria := req.Criteria
	var species []string
	if len(req.PetIDs) > 0 {
		pets, err := s.loadOwnedPets(ctx, callerID, req.PetIDs)
		if err != nil {
			return nil, err
		}
		needs := petDomain.DetermineRequirements(pets)
		criteria.WeightsKg = append(append([]float64(nil), criteria.WeightsKg...), needs.WeightsKg...)
		criteria.IncludesIntactPet = criteria.IncludesIntactPet || needs.AnyIntact
		species = needs.Species
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	providers, err := s.providers.ListAll(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "provider load failed")
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	var candidates []matching.Candidate
	if origin != nil {
		candidates = matching.Select(*origin, radius, providers)
	} else {
		candidates = matching.Unranked(providers)
	}

	matched, rejected, err := matching.FilterWithStats(candidates, criteria)
	if err != nil {
		return nil, err
	}
	// Every pet's species must be accepted; each pass narrows the previous one.
	for _, kind := range species {
		kind := kind
		before := len(matched)
		matched, err = matching.Filter(matched, matching.Criteria{PetKind: &kind})
		if err != nil {
			return nil, err
		}
		if removed := before - len(matched); removed > 0 {
			rejected["pet_kind"] += removed
		}
	}

	for name, n := range rejected {
		candidatesRejected.WithLabelValues(name).Add(float64(n))
	}
	searchDuration.Observe(time.Since(started).Seconds())
	searchResults.Observe(float64(len(matched)))
	span.SetAttributes(
		attribute.Int("matching.providers", len(providers)),
		attribute.Int("matching.candidates", len(candidates)),
		attribute.Int("matching.results", len(matched)),
		attribute.Bool("matching.geo", origin != nil),
	)

	items := make([]ProviderMatchDTO, len(matched))
	for i, cd := range matched {
		items[i] = toProviderMatchDTO(cd)
	}
	return &SearchResultDTO{Items: items, Total: len(items), Rejected: rejected}, nil
}

// Availability returns the calendar of one provider for the month monthOffset
// months from the current one.
func (s *SearchService) Availability(ctx context.Context, providerID uuid.UUID, monthOffset int) (*availability.CalendarMonth, error) {
	ctx, span := tracer.Start(ctx, "SearchService.Availability")
	defer span.End()
	span.SetAttributes(attribute.String("provider.id", providerID.String()), attribute.Int("month.offset", monthOffset))

	if monthOffset < 0 {
		return nil, domain.NewValidationError("month offset must not be negative")
	}

	p, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	today := s.clock()
	first, last := availability.MonthBounds(today, monthOffset)
	bookings, err := s.bookings.FindActiveByProviderBetween(ctx, providerID, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider bookings: %w", err)
	}

	month, err := availability.ComputeMonth(p, monthOffset, bookings, today)
	if err != nil {
		return nil, err
	}
	return &month, nil
}

func (s *SearchService) resolveOrigin(req SearchRequest) (*geo.Coordinate, float64, error) {
	if (req.Lat == nil) != (req.Lng == nil) {
		return nil, 0, domain.NewValidationError("lat and lng must be given together")
	}
	if req.Lat == nil {
		return nil, 0, nil
	}

	origin := geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	if err := origin.Validate(); err != nil {
		return nil, 0, err
	}

	radius := s.cfg.DefaultRadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return nil, 0, domain.NewValidationError("radius must be a non-negative number")
	}
	if radius > s.cfg.MaxRadiusKm {
		return nil, 0, domain.NewValidationError(fmt.Sprintf("radius must not exceed %.0f km", s.cfg.MaxRadiusKm))
	}
	return &origin, radius, nil
}

func (s *SearchService) loadOwnedPets(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*petDomain.Pet, error) {
	pets, err := s.pets.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load pets: %w", err)
	}
	return checkPetOwnership(pets, ids, ownerID)
}

// checkPetOwnership requires every id to resolve to an active pet of ownerID.
func checkPetOwnership(pets []*petDomain.Pet, ids []uuid.UUID, ownerID uuid.UUID) ([]*petDomain.Pet, error) {
	byID := make(map[uuid.UUID]*petDomain.Pet, len(pets))
	for _, p := range pets {
		byID[p.ID()] = p
	}
	out := make([]*petDomain.Pet, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsActive() {
			return nil, domain.NewNotFoundError("Pet", id.String())
		}
		if !p.IsOwnedBy(ownerID) {
			return nil, domain.NewForbiddenError("pet does not belong to this user")
		}
		out = append(out, p)
	}
	return out, nil
}

func toProviderMatchDTO(cd matching.Candidate) ProviderMatchDTO {
	p := cd.Provider
	mean, count := p.RatingSummary()
	return ProviderMatchDTO{
		ID:                  p.ID,
		DisplayName:         p.DisplayName,
		DistanceKm:          cd.DistanceKm,
		Location:            p.Location,
		Services:            p.Services,
		AcceptedPetKinds:    p.AcceptedPetKinds,
		AcceptedSizeBuckets: p.AcceptedSizeBuckets,
		Verified:            p.Verified,
		ExperienceYears:     p.ExperienceYears,
		RatingMean:          mean,
		ReviewCount:         count,
	}
}
