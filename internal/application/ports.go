package application

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/messaging"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/kafka"
)

const eventSource = "service-matching"

// Topics and CloudEvent types published by this service.
const (
	TopicBookingEvents = "booking.events"

	EventBookingRequested = "booking.requested"
	EventBookingAccepted  = "booking.accepted"
	EventBookingRejected  = "booking.rejected"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventReviewCreated    = "review.created"
)

var tracer = otel.Tracer("service-matching.application")

// EventPublisher publishes CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// ConversationSender delivers a message into a booking's conversation thread.
type ConversationSender interface {
	Send(ctx context.Context, msg messaging.ConversationMessage) error
}

// Clock returns the current calendar day.
type Clock func() civil.Date

// SystemClock reads the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	return func() civil.Date {
		return civil.DateOf(time.Now().In(loc))
	}
}

// BookingEvent is the payload of every booking.* event.
type BookingEvent struct {
	BookingID       uuid.UUID  `json:"booking_id"`
	BookingNumber   string     `json:"booking_number"`
	ProviderID      uuid.UUID  `json:"provider_id"`
	RequesterID     uuid.UUID  `json:"requester_id"`
	ServiceKind     string     `json:"service_kind"`
	StartDate       civil.Date `json:"start_date"`
	EndDate         civil.Date `json:"end_date"`
	Status          string     `json:"status"`
	PreviousStatus  string     `json:"previous_status,omitempty"`
	ActorID         *uuid.UUID `json:"actor_id,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	TotalPriceCents int64      `json:"total_price_cents"`
	Currency        string     `json:"currency"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

// ReviewCreatedEvent is published after a review is stored.
type ReviewCreatedEvent struct {
	ReviewID   uuid.UUID `json:"review_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

var statusEventTypes = map[bookingDomain.BookingStatus]string{
	bookingDomain.StatusPending:   EventBookingRequested,
	bookingDomain.StatusAccepted:  EventBookingAccepted,
	bookingDomain.StatusRejected:  EventBookingRejected,
	bookingDomain.StatusCancelled: EventBookingCancelled,
	bookingDomain.StatusCompleted: EventBookingCompleted,
}

func newBookingEvent(bk *bookingDomain.Booking, previous bookingDomain.BookingStatus, actorID uuid.UUID) BookingEvent {
	evt := BookingEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ProviderID:      bk.ProviderID(),
		RequesterID:     bk.RequesterID(),
		ServiceKind:     bk.ServiceKind(),
		StartDate:       bk.StartDate(),
		EndDate:         bk.EndDate(),
		Status:          string(bk.Status()),
		PreviousStatus:  string(previous),
		Reason:          bk.CancelReason(),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		OccurredAt:      time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		evt.ActorID = &actorID
	}
	return evt
}

// publishEvent is best-effort: failures are logged and never returned.
func publishEvent(ctx context.Context, publisher EventPublisher, logger *zap.Logger, topic, eventType, subject string, data interface{}) {
	if publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := publisher.PublishEvent(ctx, topic, cloudEvent.WithSubject(subject)); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
