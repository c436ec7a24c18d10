package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	reviewDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/review"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null"`
	Rating     int       `gorm:"type:smallint;not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Save persists a new review. The unique index on booking_id enforces one review per booking.
func (r *GormReviewRepository) Save(ctx context.Context, review *reviewDomain.Review) error {
	model := toReviewModel(review)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking has already been reviewed")
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// FindByBookingID returns the review for a booking.
func (r *GormReviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return toReviewDomain(&model), nil
}

// FindByProviderID returns a provider's reviews, newest first.
func (r *GormReviewRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("provider_id = ?", providerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i := range models {
		reviews[i] = toReviewDomain(&models[i])
	}
	return reviews, total, nil
}

func toReviewModel(r *reviewDomain.Review) ReviewModel {
	return ReviewModel{
		ID:         r.ID(),
		BookingID:  r.BookingID(),
		ProviderID: r.ProviderID(),
		AuthorID:   r.AuthorID(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		CreatedAt:  r.CreatedAt(),
	}
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.ProviderID,
		m.AuthorID,
		m.Rating,
		m.Comment,
		m.CreatedAt,
	)
}
