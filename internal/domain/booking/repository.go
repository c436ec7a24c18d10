package booking

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByRequesterID retrieves bookings made by a requester with pagination.
	FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByProviderID retrieves bookings addressed to a provider with pagination.
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindActiveByProviderBetween returns the provider's pending and accepted
	// bookings whose span overlaps [from, to].
	FindActiveByProviderBetween(ctx context.Context, providerID uuid.UUID, from, to civil.Date) ([]*Booking, error)

	// FindAcceptedEndedBefore returns accepted bookings whose end date is before day.
	FindAcceptedEndedBefore(ctx context.Context, day civil.Date, limit int) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// CompareAndSetStatus writes the booking's new status in one atomic step,
	// only if the stored row still has status from and version booking.Version()-1.
	// It returns a ConflictError when another writer got there first and a
	// NotFoundError when the row does not exist.
	CompareAndSetStatus(ctx context.Context, booking *Booking, from BookingStatus) error
}
