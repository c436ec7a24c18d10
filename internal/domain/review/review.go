package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

const (
	MinRating        = 1
	MaxRating        = 5
	maxCommentLength = 2000
)

// Review is the aggregate root for a requester's rating of a booking.
// Reviews are immutable once created.
type Review struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	providerID uuid.UUID
	authorID   uuid.UUID
	rating     int
	comment    string
	createdAt  time.Time
}

// NewReview creates a review for bk written by authorID. Only the requester may
// review, and only once the booking was accepted or completed.
func NewReview(bk *booking.Booking, authorID uuid.UUID, rating int, comment string) (*Review, error) {
	if bk == nil {
		return nil, domain.NewValidationError("booking is required")
	}
	if authorID != bk.RequesterID() {
		return nil, domain.NewForbiddenError("only the requester can review this booking")
	}
	if !bk.Status().IsReviewable() {
		return nil, domain.NewInvalidStateError(string(bk.Status()), "reviewed")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, domain.NewValidationError(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, domain.NewValidationError(fmt.Sprintf("comment must be at most %d characters", maxCommentLength))
	}

	return &Review{
		id:         uuid.New(),
		bookingID:  bk.ID(),
		providerID: bk.ProviderID(),
		authorID:   authorID,
		rating:     rating,
		comment:    comment,
		createdAt:  time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Review from persistence.
func Reconstruct(id, bookingID, providerID, authorID uuid.UUID, rating int, comment string, createdAt time.Time) *Review {
	return &Review{
		id:         id,
		bookingID:  bookingID,
		providerID: providerID,
		authorID:   authorID,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
	}
}

// Getters.
func (r *Review) ID() uuid.UUID         { return r.id }
func (r *Review) BookingID() uuid.UUID  { return r.bookingID }
func (r *Review) ProviderID() uuid.UUID { return r.providerID }
func (r *Review) AuthorID() uuid.UUID   { return r.authorID }
func (r *Review) Rating() int           { return r.rating }
func (r *Review) Comment() string       { return r.comment }
func (r *Review) CreatedAt() time.Time  { return r.createdAt }
