package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber   string          `gorm:"uniqueIndex;not null;size:20"`
	ProviderID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	RequesterID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServiceKind     string          `gorm:"not null;size:50"`
	StartDate       time.Time       `gorm:"type:date;not null"`
	EndDate         time.Time       `gorm:"type:date;not null"`
	Status          string          `gorm:"not null;size:30;index"`
	PetIDs          json.RawMessage `gorm:"type:jsonb;not null;default:'[]'"`
	TotalPriceCents int64           `gorm:"not null"`
	Currency        string          `gorm:"not null;size:3;default:'MYR'"`
	Note            string          `gorm:"size:1000"`
	CancelReason    string          `gorm:"size:500"`
	DecidedAt       *time.Time      `gorm:""`
	CancelledAt     *time.Time      `gorm:""`
	CompletedAt     *time.Time      `gorm:""`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByRequesterID retrieves bookings made by a requester with pagination.
func (r *GormBookingRepository) FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "requester_id = ?", requesterID, page, limit)
}

// FindByProviderID retrieves bookings addressed to a provider with pagination.
func (r *GormBookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "provider_id = ?", providerID, page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "", nil, page, limit)
}

func (r *GormBookingRepository) findPage(ctx context.Context, where string, arg interface{}, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&BookingModel{})
		if where != "" {
			q = q.Where(where, arg)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := scoped().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindActiveByProviderBetween returns pending and accepted bookings of a provider
// whose span overlaps [from, to].
func (r *GormBookingRepository) FindActiveByProviderBetween(ctx context.Context, providerID uuid.UUID, from, to civil.Date) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?",
			providerID,
			[]string{string(bookingDomain.StatusPending), string(bookingDomain.StatusAccepted)},
			to.String(), from.String()).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindAcceptedEndedBefore returns accepted bookings whose end date is before day.
func (r *GormBookingRepository) FindAcceptedEndedBefore(ctx context.Context, day civil.Date, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", string(bookingDomain.StatusAccepted), day.String()).
		Order("end_date ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find ended bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// CompareAndSetStatus writes the new status in a single guarded UPDATE. The row
// must still hold status from at the version the caller read.
func (r *GormBookingRepository) CompareAndSetStatus(ctx context.Context, bk *bookingDomain.Booking, from bookingDomain.BookingStatus) error {
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ? AND version = ?", bk.ID(), string(from), expectedVersion).
		Updates(map[string]interface{}{
			"status":        string(bk.Status()),
			"cancel_reason": bk.CancelReason(),
			"decided_at":    bk.DecidedAt(),
			"cancelled_at":  bk.CancelledAt(),
			"completed_at":  bk.CompletedAt(),
			"version":       bk.Version(),
			"updated_at":    bk.UpdatedAt(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("id = ?", bk.ID()).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check booking existence: %w", err)
		}
		if count == 0 {
			return domain.NewNotFoundError("Booking", bk.ID().String())
		}
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	petIDs := bk.PetIDs()
	if petIDs == nil {
		petIDs = []uuid.UUID{}
	}
	petIDsJSON, err := json.Marshal(petIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pet ids: %w", err)
	}

	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ProviderID:      bk.ProviderID(),
		RequesterID:     bk.RequesterID(),
		ServiceKind:     bk.ServiceKind(),
		StartDate:       bk.StartDate().In(time.UTC),
		EndDate:         bk.EndDate().In(time.UTC),
		Status:          string(bk.Status()),
		PetIDs:          petIDsJSON,
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
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var petIDs []uuid.UUID
	if len(m.PetIDs) > 0 {
		if err := json.Unmarshal(m.PetIDs, &petIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pet ids: %w", err)
		}
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.ProviderID,
		m.RequesterID,
		m.ServiceKind,
		civil.DateOf(m.StartDate.UTC()),
		civil.DateOf(m.EndDate.UTC()),
		status,
		petIDs,
		m.TotalPriceCents,
		m.Currency,
		m.Note,
		m.CancelReason,
		m.DecidedAt,
		m.CancelledAt,
		m.CompletedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
