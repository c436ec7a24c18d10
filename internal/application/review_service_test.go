package application

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/repository"
)

type recordingInvalidator struct {
	invalidated []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, providerID uuid.UUID) error {
	r.invalidated = append(r.invalidated, providerID)
	return nil
}

func seedBooking(t *testing.T, repo *repository.MemoryBookingRepository, requesterID uuid.UUID, status bookingDomain.BookingStatus) *bookingDomain.Booking {
	t.Helper()
	now := time.Now().UTC()
	start := civil.Date{Year: 2025, Month: 11, Day: 3}
	bk := bookingDomain.ReconstructBooking(uuid.New(), "SV-REVW01", uuid.New(), requesterID, "boarding",
		start, start.AddDays(1), status, nil, 10000, "MYR", "", "", nil, nil, nil, 2, now, now)
	require.NoError(t, repo.Save(context.Background(), bk))
	return bk
}

func TestCreateReview(t *testing.T) {
	bookings := repository.NewMemoryBookingRepository()
	invalidator := &recordingInvalidator{}
	publisher := &recordingPublisher{}
	svc := NewReviewService(repository.NewMemoryReviewRepository(), bookings, invalidator, publisher, zap.NewNop())
	requester := uuid.New()
	ctx := context.Background()

	completed := seedBooking(t, bookings, requester, bookingDomain.StatusCompleted)

	dto, err := svc.CreateReview(ctx, completed.ID(), requester, CreateReviewRequest{Rating: 5, Comment: "Lovely with our dog"})
	require.NoError(t, err)
	assert.Equal(t, completed.ProviderID(), dto.ProviderID)
	assert.Equal(t, []uuid.UUID{completed.ProviderID()}, invalidator.invalidated)
	assert.Equal(t, []string{EventReviewCreated}, publisher.types())

	_, err = svc.CreateReview(ctx, completed.ID(), requester, CreateReviewRequest{Rating: 4})
	assert.True(t, domain.IsConflict(err))

	page, err := svc.GetProviderReviews(ctx, completed.ProviderID(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestCreateReview_Rejections(t *testing.T) {
	bookings := repository.NewMemoryBookingRepository()
	svc := NewReviewService(repository.NewMemoryReviewRepository(), bookings, nil, nil, zap.NewNop())
	requester := uuid.New()
	ctx := context.Background()

	pending := seedBooking(t, bookings, requester, bookingDomain.StatusPending)
	accepted := seedBooking(t, bookings, requester, bookingDomain.StatusAccepted)

	_, err := svc.CreateReview(ctx, pending.ID(), requester, CreateReviewRequest{Rating: 4})
	assert.True(t, domain.IsInvalidState(err))

	_, err = svc.CreateReview(ctx, accepted.ID(), uuid.New(), CreateReviewRequest{Rating: 4})
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.CreateReview(ctx, accepted.ID(), requester, CreateReviewRequest{Rating: 6})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.CreateReview(ctx, uuid.New(), requester, CreateReviewRequest{Rating: 4})
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.CreateReview(ctx, accepted.ID(), requester, CreateReviewRequest{Rating: 4})
	assert.NoError(t, err)
}
