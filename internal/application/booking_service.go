package application

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/availability"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/matching"
	petDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/pet"
	providerDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/messaging"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ProviderID  uuid.UUID   `json:"provider_id" binding:"required"`
	ServiceKind string      `json:"service_kind" binding:"required"`
	StartDate   civil.Date  `json:"start_date"`
	EndDate     civil.Date  `json:"end_date"`
	PetIDs      []uuid.UUID `json:"pet_ids"`
	Note        string      `json:"note"`
}

// TransitionRequest moves a booking to a new status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID   `json:"id"`
	BookingNumber   string      `json:"booking_number"`
	ProviderID      uuid.UUID   `json:"provider_id"`
	RequesterID     uuid.UUID   `json:"requester_id"`
	ServiceKind     string      `json:"service_kind"`
	StartDate       civil.Date  `json:"start_date"`
	EndDate         civil.Date  `json:"end_date"`
	Days            int         `json:"days"`
	Status          string      `json:"status"`
	PetIDs          []uuid.UUID `json:"pet_ids"`
	TotalPriceCents int64       `json:"total_price_cents"`
	Currency        string      `json:"currency"`
	Note            string      `json:"note,omitempty"`
	CancelReason    string      `json:"cancel_reason,omitempty"`
	DecidedAt       *time.Time  `json:"decided_at,omitempty"`
	CancelledAt     *time.Time  `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	Version         int64       `json:"version"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo          bookingDomain.BookingRepository
	providers     providerDomain.ProviderRepository
	pets          petDomain.PetRepository
	pricing       bookingDomain.PricingStrategy
	publisher     EventPublisher
	conversations ConversationSender
	clock         Clock
	logger        *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	providers providerDomain.ProviderRepository,
	pets petDomain.PetRepository,
	pricing bookingDomain.PricingStrategy,
	publisher EventPublisher,
	conversations ConversationSender,
	clock Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:          repo,
		providers:     providers,
		pets:          pets,
		pricing:       pricing,
		publisher:     publisher,
		conversations: conversations,
		clock:         clock,
		logger:        logger,
	}
}

// CreateBooking creates a pending booking for requesterID. Every day of the
// span must be available on the provider's calendar.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	ctx, span := tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()
	span.SetAttributes(attribute.String("provider.id", req.ProviderID.String()))

	today := s.clock()
	if err := bookingDomain.ValidateSpan(req.StartDate, req.EndDate, today); err != nil {
		return nil, err
	}

	p, err := s.providers.FindByID(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if p.UserID == requesterID {
		return nil, domain.NewValidationError("you cannot book your own services")
	}
	offer, ok := p.Service(req.ServiceKind)
	if !ok || !offer.Active {
		return nil, domain.NewValidationError(fmt.Sprintf("provider does not offer %q", req.ServiceKind))
	}

	if len(req.PetIDs) > 0 {
		if err := s.checkPets(ctx, requesterID, req.PetIDs, p); err != nil {
			return nil, err
		}
	}

	held, err := s.repo.FindActiveByProviderBetween(ctx, p.ID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider bookings: %w", err)
	}
	calc := availability.NewCalculator(p, held, today)
	if day, found := calc.FirstUnavailable(req.StartDate, req.EndDate); found {
		return nil, domain.NewValidationError(fmt.Sprintf("provider is not available on %s (%s)", day.Date, day.Class))
	}

	priceCents, err := s.pricing.Calculate(bookingDomain.PricingParams{
		Offer:     offer,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bk, err := bookingDomain.NewBooking(
		p.ID,
		requesterID,
		providerDomain.NormalizeServiceKind(req.ServiceKind),
		req.StartDate,
		req.EndDate,
		req.PetIDs,
		priceCents,
		domain.CurrencyMYR,
		req.Note,
		today,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		span.SetStatus(codes.Error, "save failed")
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	bookingsCreated.Inc()

	publishEvent(ctx, s.publisher, s.logger, TopicBookingEvents, EventBookingRequested, bk.ID().String(),
		newBookingEvent(bk, "", requesterID))

	if bk.Note() != "" {
		s.sendIntro(ctx, bk, p.UserID)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// sendIntro posts the requester's note to the provider. The booking is already
// committed; a failed send is logged and counted, never returned.
func (s *BookingService) sendIntro(ctx context.Context, bk *bookingDomain.Booking, providerUserID uuid.UUID) {
	if s.conversations == nil {
		return
	}
	err := s.conversations.Send(ctx, messaging.ConversationMessage{
		BookingID:   bk.ID(),
		SenderID:    bk.RequesterID(),
		RecipientID: providerUserID,
		Body:        bk.Note(),
	})
	if err != nil {
		introMessagesFailed.Inc()
		s.logger.Warn("failed to deliver intro message",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
}

// checkPets requires the pets to belong to the requester and to be acceptable
// to the provider.
func (s *BookingService) checkPets(ctx context.Context, requesterID uuid.UUID, ids []uuid.UUID, p *providerDomain.Provider) error {
	found, err := s.pets.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load pets: %w", err)
	}
	pets, err := checkPetOwnership(found, ids, requesterID)
	if err != nil {
		return err
	}

	needs := petDomain.DetermineRequirements(pets)
	candidates := []matching.Candidate{{Provider: p}}
	criteria := matching.Criteria{WeightsKg: needs.WeightsKg, IncludesIntactPet: needs.AnyIntact}
	for _, kind := range needs.Species {
		kind := kind
		criteria.PetKind = &kind
		kept, err := matching.Filter(candidates, criteria)
		if err != nil {
			return err
		}
		if len(kept) == 0 {
			return domain.NewValidationError("provider does not accept one or more of these pets")
		}
	}
	return nil
}

// TransitionBooking applies a requester or provider decision. The caller's role
// is resolved from the booking's participants; the write is a compare-and-set
// on the status read here, so a concurrent decision makes this one fail with a
// ConflictError instead of overwriting it.
func (s *BookingService) TransitionBooking(ctx context.Context, bookingID, callerID uuid.UUID, target bookingDomain.BookingStatus, reason string) (*BookingDTO, error) {
	ctx, span := tracer.Start(ctx, "BookingService.TransitionBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", bookingID.String()),
		attribute.String("booking.target", string(target)),
	)

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	p, err := s.providers.FindByID(ctx, bk.ProviderID())
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	role := bk.RoleOf(callerID, p.UserID)
	if err := bk.Transition(target, role, reason); err != nil {
		bookingTransitions.WithLabelValues(string(target), domain.CodeOf(err)).Inc()
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.CompareAndSetStatus(ctx, bk, from); err != nil {
		bookingTransitions.WithLabelValues(string(target), outcomeOf(err)).Inc()
		if domain.IsConflict(err) {
			s.logger.Info("booking transition lost a race",
				zap.String("booking_id", bookingID.String()),
				zap.String("from", string(from)),
				zap.String("to", string(target)),
			)
		} else {
			span.SetStatus(codes.Error, "status update failed")
		}
		return nil, err
	}
	bookingTransitions.WithLabelValues(string(target), "committed").Inc()

	publishEvent(ctx, s.publisher, s.logger, TopicBookingEvents, statusEventTypes[target], bk.ID().String(),
		newBookingEvent(bk, from, callerID))

	result := toBookingDTO(bk)
	return &result, nil
}

// AcceptBooking is the provider accepting a pending request.
func (s *BookingService) AcceptBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error) {
	return s.TransitionBooking(ctx, bookingID, callerID, bookingDomain.StatusAccepted, "")
}

// RejectBooking is the provider declining a pending request.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error) {
	return s.TransitionBooking(ctx, bookingID, callerID, bookingDomain.StatusRejected, "")
}

// CancelBooking is the requester withdrawing a pending or accepted booking.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, callerID uuid.UUID, reason string) (*BookingDTO, error) {
	return s.TransitionBooking(ctx, bookingID, callerID, bookingDomain.StatusCancelled, reason)
}

// CompleteEnded moves accepted bookings whose last day is before today to
// completed. Bookings changed concurrently are skipped. It returns the number
// completed.
func (s *BookingService) CompleteEnded(ctx context.Context, batchSize int) (int, error) {
	ctx, span := tracer.Start(ctx, "BookingService.CompleteEnded")
	defer span.End()

	today := s.clock()
	ended, err := s.repo.FindAcceptedEndedBefore(ctx, today, batchSize)
	if err != nil {
		span.SetStatus(codes.Error, "load failed")
		return 0, fmt.Errorf("failed to load ended bookings: %w", err)
	}

	completed := 0
	for _, bk := range ended {
		from := bk.Status()
		if err := bk.Complete(today); err != nil {
			s.logger.Warn("booking not completable", zap.String("booking_id", bk.ID().String()), zap.Error(err))
			continue
		}
		bk.IncrementVersion()
		if err := s.repo.CompareAndSetStatus(ctx, bk, from); err != nil {
			bookingTransitions.WithLabelValues(string(bookingDomain.StatusCompleted), outcomeOf(err)).Inc()
			if domain.IsConflict(err) || domain.IsNotFound(err) {
				continue
			}
			return completed, err
		}
		bookingTransitions.WithLabelValues(string(bookingDomain.StatusCompleted), "committed").Inc()
		completed++

		publishEvent(ctx, s.publisher, s.logger, TopicBookingEvents, EventBookingCompleted, bk.ID().String(),
			newBookingEvent(bk, from, uuid.Nil))
	}
	span.SetAttributes(attribute.Int("bookings.completed", completed))
	return completed, nil
}

// GetBooking retrieves a booking visible to callerID as requester or provider.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.RequesterID() != callerID {
		p, err := s.providers.FindByID(ctx, bk.ProviderID())
		if err != nil {
			return nil, err
		}
		if p.UserID != callerID {
			return nil, domain.NewForbiddenError("booking does not belong to this user")
		}
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetRequesterBookings retrieves paginated bookings made by a requester.
func (s *BookingService) GetRequesterBookings(ctx context.Context, requesterID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByRequesterID(ctx, requesterID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetProviderBookings retrieves paginated bookings addressed to the provider
// profile owned by providerUserID.
func (s *BookingService) GetProviderBookings(ctx context.Context, providerUserID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	p, err := s.providers.FindByUserID(ctx, providerUserID)
	if err != nil {
		return nil, err
	}
	bookings, total, err := s.repo.FindByProviderID(ctx, p.ID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func outcomeOf(err error) string {
	if code := domain.CodeOf(err); code != "" {
		return code
	}
	return "error"
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	petIDs := bk.PetIDs()
	if petIDs == nil {
		petIDs = []uuid.UUID{}
	}
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ProviderID:      bk.ProviderID(),
		RequesterID:     bk.RequesterID(),
		ServiceKind:     bk.ServiceKind(),
		StartDate:       bk.StartDate(),
		EndDate:         bk.EndDate(),
		Days:            bk.Days(),
		Status:          string(bk.Status()),
		PetIDs:          petIDs,
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		Note:            bk.Note(),
		CancelReason:    bk.CancelReason(),
		DecidedAt:       bk.DecidedAt(),
		CancelledAt:     bk.CancelledAt(),
		CompletedAt:     bk.CompletedAt(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
