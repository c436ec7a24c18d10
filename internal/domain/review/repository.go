package review

import (
	"context"

	"github.com/google/uuid"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Save persists a review. It returns a ConflictError if the booking already has one.
	Save(ctx context.Context, review *Review) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Review, error)
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Review, int64, error)
}
