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

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/geo"
	providerDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// ProviderModel is the GORM model for the providers table. The profile service
// owns writes; this service only reads.
type ProviderModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID              uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	DisplayName         string          `gorm:"size:120;not null"`
	Latitude            *float64        `gorm:""`
	Longitude           *float64        `gorm:""`
	Services            json.RawMessage `gorm:"type:jsonb;not null;default:'{}'"`
	AcceptedPetKinds    json.RawMessage `gorm:"type:jsonb;not null;default:'[]'"`
	AcceptedSizeBuckets json.RawMessage `gorm:"type:jsonb;not null;default:'[]'"`
	NeuteredOnly        bool            `gorm:"not null;default:false"`
	Verified            bool            `gorm:"not null;default:false"`
	ExperienceYears     float64         `gorm:"not null;default:0"`
	GeneralAvailability json.RawMessage `gorm:"type:jsonb;not null;default:'[]'"`
	BlockedDates        json.RawMessage `gorm:"type:jsonb;not null;default:'[]'"`
	UpdatedAt           time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ProviderModel) TableName() string {
	return "providers"
}

// GormProviderRepository reads provider snapshots and attaches their reviews.
type GormProviderRepository struct {
	db *gorm.DB
}

// NewGormProviderRepository creates a new GormProviderRepository.
func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// FindByID returns one provider with reviews attached.
func (r *GormProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*providerDomain.Provider, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUserID returns the provider profile owned by an account.
func (r *GormProviderRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*providerDomain.Provider, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *GormProviderRepository) findOne(ctx context.Context, where string, id uuid.UUID) (*providerDomain.Provider, error) {
	var model ProviderModel
	if err := r.db.WithContext(ctx).Where(where, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Provider", id.String())
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}

	p, err := toDomainProvider(&model)
	if err != nil {
		return nil, err
	}
	if err := r.attachReviews(ctx, []*providerDomain.Provider{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// ListAll returns every provider with reviews attached.
func (r *GormProviderRepository) ListAll(ctx context.Context) ([]*providerDomain.Provider, error) {
	var models []ProviderModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	providers := make([]*providerDomain.Provider, 0, len(models))
	for i := range models {
		p, err := toDomainProvider(&models[i])
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if err := r.attachReviews(ctx, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// attachReviews loads ratings for all providers in one query.
func (r *GormProviderRepository) attachReviews(ctx context.Context, providers []*providerDomain.Provider) error {
	if len(providers) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*providerDomain.Provider, len(providers))
	ids := make([]uuid.UUID, 0, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	var rows []ReviewModel
	if err := r.db.WithContext(ctx).
		Select("provider_id, rating, created_at").
		Where("provider_id IN ?", ids).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load provider reviews: %w", err)
	}

	for _, row := range rows {
		if p, ok := byID[row.ProviderID]; ok {
			p.Reviews = append(p.Reviews, providerDomain.Review{
				ProviderID: row.ProviderID,
				Rating:     row.Rating,
				CreatedAt:  row.CreatedAt,
			})
		}
	}
	return nil
}

// --- Conversion Helpers ---

func toDomainProvider(m *ProviderModel) (*providerDomain.Provider, error) {
	p := &providerDomain.Provider{
		ID:              m.ID,
		UserID:          m.UserID,
		DisplayName:     m.DisplayName,
		NeuteredOnly:    m.NeuteredOnly,
		Verified:        m.Verified,
		ExperienceYears: m.ExperienceYears,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Latitude != nil && m.Longitude != nil {
		p.Location = &geo.Coordinate{Lat: *m.Latitude, Lng: *m.Longitude}
	}

	if err := unmarshalColumn(m.Services, &p.Services, "services"); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(m.AcceptedPetKinds, &p.AcceptedPetKinds, "accepted_pet_kinds"); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(m.AcceptedSizeBuckets, &p.AcceptedSizeBuckets, "accepted_size_buckets"); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(m.GeneralAvailability, &p.GeneralAvailability, "general_availability"); err != nil {
		return nil, err
	}

	var blocked []string
	if err := unmarshalColumn(m.BlockedDates, &blocked, "blocked_dates"); err != nil {
		return nil, err
	}
	for _, s := range blocked {
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("provider %s has malformed blocked date %q: %w", m.ID, s, err)
		}
		p.BlockedDates = append(p.BlockedDates, d)
	}
	return p, nil
}

func unmarshalColumn(raw json.RawMessage, v interface{}, column string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", column, err)
	}
	return nil
}
