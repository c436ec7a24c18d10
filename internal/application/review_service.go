package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	reviewDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/review"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// CreateReviewRequest is the request DTO for reviewing a booking.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// ReviewDTO is the API response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProviderInvalidator drops cached provider snapshots.
type ProviderInvalidator interface {
	Invalidate(ctx context.Context, providerID uuid.UUID) error
}

// ReviewService handles review creation and listing.
type ReviewService struct {
	repo        reviewDomain.ReviewRepository
	bookings    bookingDomain.BookingRepository
	invalidator ProviderInvalidator
	publisher   EventPublisher
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService. invalidator may be nil when
// provider snapshots are not cached.
func NewReviewService(
	repo reviewDomain.ReviewRepository,
	bookings bookingDomain.BookingRepository,
	invalidator ProviderInvalidator,
	publisher EventPublisher,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		repo:        repo,
		bookings:    bookings,
		invalidator: invalidator,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateReview stores the requester's review of a booking. Accepted bookings
// may be reviewed as well as completed ones.
func (s *ReviewService) CreateReview(ctx context.Context, bookingID, authorID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	review, err := reviewDomain.NewReview(bk, authorID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, review); err != nil {
		if domain.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, review.ProviderID()); err != nil {
			s.logger.Warn("failed to invalidate provider snapshot",
				zap.String("provider_id", review.ProviderID().String()),
				zap.Error(err),
			)
		}
	}

	publishEvent(ctx, s.publisher, s.logger, TopicBookingEvents, EventReviewCreated, bk.ID().String(), ReviewCreatedEvent{
		ReviewID:   review.ID(),
		BookingID:  review.BookingID(),
		ProviderID: review.ProviderID(),
		Rating:     review.Rating(),
		OccurredAt: time.Now().UTC(),
	})

	result := toReviewDTO(review)
	return &result, nil
}

// GetProviderReviews lists a provider's reviews, newest first.
func (s *ReviewService) GetProviderReviews(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	dtos := make([]ReviewDTO, len(reviews))
	for i, r := range reviews {
		dtos[i] = toReviewDTO(r)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toReviewDTO(r *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
		ID:         r.ID(),
		BookingID:  r.BookingID(),
		ProviderID: r.ProviderID(),
		AuthorID:   r.AuthorID(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		CreatedAt:  r.CreatedAt(),
	}
}
