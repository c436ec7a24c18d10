package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxNoteLength = 1000

// Booking is the aggregate root for a care request.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	providerID    uuid.UUID
	requesterID   uuid.UUID
	serviceKind   string
	startDate     civil.Date
	endDate       civil.Date
	status        BookingStatus
	petIDs        []uuid.UUID

	totalPriceCents int64
	currency        string

	note         string
	cancelReason string
	decidedAt    *time.Time
	cancelledAt  *time.Time
	completedAt  *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "SV-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "SV-" + string(result), nil
}

// NewBooking creates a pending booking. today is the requester's calendar day;
// a booking may not start before it.
func NewBooking(
	providerID uuid.UUID,
	requesterID uuid.UUID,
	serviceKind string,
	startDate civil.Date,
	endDate civil.Date,
	petIDs []uuid.UUID,
	totalPriceCents int64,
	currency string,
	note string,
	today civil.Date,
) (*Booking, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if requesterID == uuid.Nil {
		return nil, domain.NewValidationError("requester ID is required")
	}
	if strings.TrimSpace(serviceKind) == "" {
		return nil, domain.NewValidationError("service kind is required")
	}
	if err := ValidateSpan(startDate, endDate, today); err != nil {
		return nil, err
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}
	if len(note) > maxNoteLength {
		return nil, domain.NewValidationError(fmt.Sprintf("note must be at most %d characters", maxNoteLength))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		providerID:      providerID,
		requesterID:     requesterID,
		serviceKind:     serviceKind,
		startDate:       startDate,
		endDate:         endDate,
		status:          StatusPending,
		petIDs:          petIDs,
		totalPriceCents: totalPriceCents,
		currency:        currency,
		note:            strings.TrimSpace(note),
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ValidateSpan checks that the dates are real, ordered and not in the past.
func ValidateSpan(startDate, endDate, today civil.Date) error {
	if !startDate.IsValid() || !endDate.IsValid() {
		return domain.NewValidationError("start and end dates must be valid calendar dates")
	}
	if endDate.Before(startDate) {
		return domain.NewValidationError("end date must not be before start date")
	}
	if startDate.Before(today) {
		return domain.NewValidationError("start date must not be in the past")
	}
	return nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	providerID uuid.UUID,
	requesterID uuid.UUID,
	serviceKind string,
	startDate civil.Date,
	endDate civil.Date,
	status BookingStatus,
	petIDs []uuid.UUID,
	totalPriceCents int64,
	currency string,
	note string,
	cancelReason string,
	decidedAt *time.Time,
	cancelledAt *time.Time,
	completedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		providerID:      providerID,
		requesterID:     requesterID,
		serviceKind:     serviceKind,
		startDate:       startDate,
		endDate:         endDate,
		status:          status,
		petIDs:          petIDs,
		totalPriceCents: totalPriceCents,
		currency:        currency,
		note:            note,
		cancelReason:    cancelReason,
		decidedAt:       decidedAt,
		cancelledAt:     cancelledAt,
		completedAt:     completedAt,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID             { return b.id }
func (b *Booking) BookingNumber() string     { return b.bookingNumber }
func (b *Booking) ProviderID() uuid.UUID     { return b.providerID }
func (b *Booking) RequesterID() uuid.UUID    { return b.requesterID }
func (b *Booking) ServiceKind() string       { return b.serviceKind }
func (b *Booking) StartDate() civil.Date     { return b.startDate }
func (b *Booking) EndDate() civil.Date       { return b.endDate }
func (b *Booking) Status() BookingStatus     { return b.status }
func (b *Booking) PetIDs() []uuid.UUID       { return b.petIDs }
func (b *Booking) TotalPriceCents() int64    { return b.totalPriceCents }
func (b *Booking) Currency() string          { return b.currency }
func (b *Booking) Note() string              { return b.note }
func (b *Booking) CancelReason() string      { return b.cancelReason }
func (b *Booking) DecidedAt() *time.Time     { return b.decidedAt }
func (b *Booking) CancelledAt() *time.Time   { return b.cancelledAt }
func (b *Booking) CompletedAt() *time.Time   { return b.completedAt }
func (b *Booking) Version() int64            { return b.version }
func (b *Booking) CreatedAt() time.Time      { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time      { return b.updatedAt }

// Covers reports whether d lies within the inclusive [start, end] span.
func (b *Booking) Covers(d civil.Date) bool {
	return !d.Before(b.startDate) && !d.After(b.endDate)
}

// Days returns the number of calendar days in the span, counting both ends.
func (b *Booking) Days() int {
	return b.endDate.DaysSince(b.startDate) + 1
}

// --- Behavior ---

// RoleOf resolves the caller's role in this booking.
func (b *Booking) RoleOf(callerID, providerUserID uuid.UUID) Role {
	return ResolveRole(callerID, b.requesterID, providerUserID)
}

// Transition moves the booking to target on behalf of a participant with role.
// The record is unchanged when the rule table rejects the request.
func (b *Booking) Transition(target BookingStatus, role Role, reason string) error {
	if err := Authorize(b.status, target, role); err != nil {
		return err
	}
	b.apply(target, reason)
	return nil
}

// Complete is the system transition for accepted bookings whose last day is
// before today. It is not available to requesters or providers.
func (b *Booking) Complete(today civil.Date) error {
	if b.status != StatusAccepted {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	if !b.endDate.Before(today) {
		return domain.NewValidationError("booking has not ended yet")
	}
	b.apply(StatusCompleted, "")
	return nil
}

func (b *Booking) apply(target BookingStatus, reason string) {
	now := time.Now().UTC()
	switch target {
	case StatusAccepted, StatusRejected:
		b.decidedAt = &now
	case StatusCancelled:
		b.cancelledAt = &now
		b.cancelReason = strings.TrimSpace(reason)
	case StatusCompleted:
		b.completedAt = &now
	}
	b.status = target
	b.updatedAt = now
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
