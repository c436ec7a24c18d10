package application

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/messaging"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/kafka"
)

var testToday = civil.Date{Year: 2025, Month: 12, Day: 1}

func fixedClock(d civil.Date) Clock {
	return func() civil.Date { return d }
}

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingSender struct {
	mu   sync.Mutex
	fail bool
	sent []messaging.ConversationMessage
}

func (s *recordingSender) Send(_ context.Context, msg messaging.ConversationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("conversation service unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func boardingProvider() *provider.Provider {
	holiday := int64(8000)
	return &provider.Provider{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		DisplayName: "Central Park Sitters",
		Location:    &geo.Coordinate{Lat: 40.706086, Lng: -73.996864},
		Services: map[string]provider.ServiceOffer{
			"boarding":     {Active: true, RateCents: 5000, HolidayRateCents: &holiday},
			"dog-walking":  {Active: true, RateCents: 2000},
			"housesitting": {Active: false, RateCents: 9000},
		},
		AcceptedPetKinds:    []string{"Dog", "Cat"},
		AcceptedSizeBuckets: []string{"Small", "Medium", "Large"},
		Verified:            true,
		ExperienceYears:     4,
	}
}
