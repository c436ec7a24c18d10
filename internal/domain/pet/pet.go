package pet

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// PetStatus represents the lifecycle state of a pet profile.
type PetStatus string

const (
	PetStatusActive   PetStatus = "active"
	PetStatusArchived PetStatus = "archived"
)

// Species values the matching service recognizes. Providers may list others;
// comparison is case-insensitive.
const (
	SpeciesDog    = "Dog"
	SpeciesCat    = "Cat"
	SpeciesBird   = "Bird"
	SpeciesRabbit = "Rabbit"
	SpeciesOther  = "Other"
)

// Pet is the aggregate root for a requester's pet profile.
type Pet struct {
	id           uuid.UUID
	ownerID      uuid.UUID
	name         string
	species      string
	breed        string
	weightKg     float64
	ageMonths    int
	neutered     bool
	specialNeeds string
	notes        string
	status       PetStatus
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewPet creates a new active pet profile with validated fields.
func NewPet(
	ownerID uuid.UUID,
	name, species, breed string,
	weightKg float64,
	ageMonths int,
	neutered bool,
	specialNeeds, notes string,
) (*Pet, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("pet name is required")
	}
	if strings.TrimSpace(species) == "" {
		return nil, domain.NewValidationError("species is required")
	}
	if weightKg <= 0 {
		return nil, domain.NewValidationError("weight must be positive")
	}
	if ageMonths < 0 {
		return nil, domain.NewValidationError("age must not be negative")
	}

	now := time.Now().UTC()
	return &Pet{
		id:           uuid.New(),
		ownerID:      ownerID,
		name:         strings.TrimSpace(name),
		species:      strings.TrimSpace(species),
		breed:        breed,
		weightKg:     weightKg,
		ageMonths:    ageMonths,
		neutered:     neutered,
		specialNeeds: specialNeeds,
		notes:        notes,
		status:       PetStatusActive,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Pet from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	name, species, breed string,
	weightKg float64,
	ageMonths int,
	neutered bool,
	specialNeeds, notes string,
	status PetStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Pet {
	return &Pet{
		id:           id,
		ownerID:      ownerID,
		name:         name,
		species:      species,
		breed:        breed,
		weightKg:     weightKg,
		ageMonths:    ageMonths,
		neutered:     neutered,
		specialNeeds: specialNeeds,
		notes:        notes,
		status:       status,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (p *Pet) ID() uuid.UUID        { return p.id }
func (p *Pet) OwnerID() uuid.UUID   { return p.ownerID }
func (p *Pet) Name() string         { return p.name }
func (p *Pet) Species() string      { return p.species }
func (p *Pet) Breed() string        { return p.breed }
func (p *Pet) WeightKg() float64    { return p.weightKg }
func (p *Pet) AgeMonths() int       { return p.ageMonths }
func (p *Pet) Neutered() bool       { return p.neutered }
func (p *Pet) SpecialNeeds() string { return p.specialNeeds }
func (p *Pet) Notes() string        { return p.notes }
func (p *Pet) Status() PetStatus    { return p.status }
func (p *Pet) Version() int64       { return p.version }
func (p *Pet) CreatedAt() time.Time { return p.createdAt }
func (p *Pet) UpdatedAt() time.Time { return p.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the pet belongs to the given owner.
func (p *Pet) IsOwnedBy(ownerID uuid.UUID) bool {
	return p.ownerID == ownerID
}

// UpdateParams carries a partial update. Nil fields are left unchanged.
type UpdateParams struct {
	Name         *string
	Species      *string
	Breed        *string
	WeightKg     *float64
	AgeMonths    *int
	Neutered     *bool
	SpecialNeeds *string
	Notes        *string
}

// Update applies partial updates to the pet profile.
func (p *Pet) Update(params UpdateParams) error {
	if params.Name != nil {
		if strings.TrimSpace(*params.Name) == "" {
			return domain.NewValidationError("pet name must not be empty")
		}
		p.name = strings.TrimSpace(*params.Name)
	}
	if params.Species != nil {
		if strings.TrimSpace(*params.Species) == "" {
			return domain.NewValidationError("species must not be empty")
		}
		p.species = strings.TrimSpace(*params.Species)
	}
	if params.WeightKg != nil {
		if *params.WeightKg <= 0 {
			return domain.NewValidationError("weight must be positive")
		}
		p.weightKg = *params.WeightKg
	}
	if params.AgeMonths != nil {
		if *params.AgeMonths < 0 {
			return domain.NewValidationError("age must not be negative")
		}
		p.ageMonths = *params.AgeMonths
	}
	if params.Breed != nil {
		p.breed = *params.Breed
	}
	if params.Neutered != nil {
		p.neutered = *params.Neutered
	}
	if params.SpecialNeeds != nil {
		p.specialNeeds = *params.SpecialNeeds
	}
	if params.Notes != nil {
		p.notes = *params.Notes
	}
	p.version++
	p.updatedAt = time.Now().UTC()
	return nil
}

// Archive marks the pet profile as archived.
func (p *Pet) Archive() {
	p.status = PetStatusArchived
	p.version++
	p.updatedAt = time.Now().UTC()
}

// IsActive returns true if the pet profile is active.
func (p *Pet) IsActive() bool {
	return p.status == PetStatusActive
}
