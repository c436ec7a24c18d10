package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	petDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/pet"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// PetModel is the GORM model for the pets table.
type PetModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Species      string    `gorm:"type:varchar(30);not null"`
	Breed        string    `gorm:"type:varchar(100)"`
	WeightKg     float64   `gorm:"type:decimal(5,2);not null"`
	AgeMonths    int       `gorm:"type:int"`
	Neutered     bool      `gorm:"not null;default:false"`
	SpecialNeeds string    `gorm:"type:text"`
	Notes        string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active'"`
	Version      int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (PetModel) TableName() string { return "pets" }

// GormPetRepository implements PetRepository using GORM.
type GormPetRepository struct {
	db *gorm.DB
}

func NewGormPetRepository(db *gorm.DB) *GormPetRepository {
	return &GormPetRepository{db: db}
}

func (r *GormPetRepository) FindByID(ctx context.Context, id uuid.UUID) (*petDomain.Pet, error) {
	var model PetModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Pet", id.String())
		}
		return nil, fmt.Errorf("failed to find pet: %w", err)
	}
	return toPetDomain(&model), nil
}

func (r *GormPetRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*petDomain.Pet, error) {
	var models []PetModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, string(petDomain.PetStatusActive)).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pets: %w", err)
	}
	return toPetDomains(models), nil
}

// FindByIDs returns the pets that exist among ids; missing ids are skipped.
func (r *GormPetRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*petDomain.Pet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []PetModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pets: %w", err)
	}
	return toPetDomains(models), nil
}

func (r *GormPetRepository) Save(ctx context.Context, pet *petDomain.Pet) error {
	model := toPetModel(pet)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save pet: %w", err)
	}
	return nil
}

func (r *GormPetRepository) Update(ctx context.Context, pet *petDomain.Pet) error {
	model := toPetModel(pet)
	previousVersion := pet.Version() - 1

	// A map keeps false and zero values; Updates(struct) would skip them.
	result := r.db.WithContext(ctx).
		Model(&PetModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"name":          model.Name,
			"species":       model.Species,
			"breed":         model.Breed,
			"weight_kg":     model.WeightKg,
			"age_months":    model.AgeMonths,
			"neutered":      model.Neutered,
			"special_needs": model.SpecialNeeds,
			"notes":         model.Notes,
			"status":        model.Status,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update pet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("pet was modified by another transaction")
	}
	return nil
}

// --- Conversions ---

func toPetModel(p *petDomain.Pet) *PetModel {
	return &PetModel{
		ID:           p.ID(),
		OwnerID:      p.OwnerID(),
		Name:         p.Name(),
		Species:      p.Species(),
		Breed:        p.Breed(),
		WeightKg:     p.WeightKg(),
		AgeMonths:    p.AgeMonths(),
		Neutered:     p.Neutered(),
		SpecialNeeds: p.SpecialNeeds(),
		Notes:        p.Notes(),
		Status:       string(p.Status()),
		Version:      p.Version(),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}
}

func toPetDomain(m *PetModel) *petDomain.Pet {
	return petDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.Species, m.Breed,
		m.WeightKg, m.AgeMonths,
		m.Neutered,
		m.SpecialNeeds, m.Notes,
		petDomain.PetStatus(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

func toPetDomains(models []PetModel) []*petDomain.Pet {
	pets := make([]*petDomain.Pet, len(models))
	for i := range models {
		pets[i] = toPetDomain(&models[i])
	}
	return pets
}
