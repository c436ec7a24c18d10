package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	petDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/pet"
	providerDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// CreatePetRequest is the request DTO for creating a pet profile.
type CreatePetRequest struct {
	Name         string  `json:"name" binding:"required"`
	Species      string  `json:"species" binding:"required"`
	Breed        string  `json:"breed"`
	WeightKg     float64 `json:"weight_kg" binding:"required,gt=0"`
	AgeMonths    int     `json:"age_months" binding:"gte=0"`
	Neutered     bool    `json:"neutered"`
	SpecialNeeds string  `json:"special_needs"`
	Notes        string  `json:"notes"`
}

// UpdatePetRequest is the request DTO for updating a pet profile. Omitted
// fields are left unchanged.
type UpdatePetRequest struct {
	Name         *string  `json:"name"`
	Species      *string  `json:"species"`
	Breed        *string  `json:"breed"`
	WeightKg     *float64 `json:"weight_kg"`
	AgeMonths    *int     `json:"age_months"`
	Neutered     *bool    `json:"neutered"`
	SpecialNeeds *string  `json:"special_needs"`
	Notes        *string  `json:"notes"`
}

// PetDTO is the API response representation of a pet profile.
type PetDTO struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Name         string    `json:"name"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed"`
	WeightKg     float64   `json:"weight_kg"`
	SizeBucket   string    `json:"size_bucket"`
	AgeMonths    int       `json:"age_months"`
	Neutered     bool      `json:"neutered"`
	SpecialNeeds string    `json:"special_needs,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PetService implements use cases for pet profile management.
type PetService struct {
	repo   petDomain.PetRepository
	logger *zap.Logger
}

// NewPetService creates a new PetService.
func NewPetService(repo petDomain.PetRepository, logger *zap.Logger) *PetService {
	return &PetService{repo: repo, logger: logger}
}

// CreatePet creates a new pet profile for the given owner.
func (s *PetService) CreatePet(ctx context.Context, ownerID uuid.UUID, req CreatePetRequest) (*PetDTO, error) {
	pet, err := petDomain.NewPet(
		ownerID,
		req.Name, req.Species, req.Breed,
		req.WeightKg, req.AgeMonths,
		req.Neutered,
		req.SpecialNeeds, req.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid pet data: %w", err)
	}

	if err := s.repo.Save(ctx, pet); err != nil {
		s.logger.Error("failed to create pet", zap.Error(err))
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}

	s.logger.Info("pet profile created",
		zap.String("pet_id", pet.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)
	result := toPetDTO(pet)
	return &result, nil
}

// GetMyPets returns all active pet profiles for the given owner.
func (s *PetService) GetMyPets(ctx context.Context, ownerID uuid.UUID) ([]PetDTO, error) {
	pets, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pets: %w", err)
	}
	dtos := make([]PetDTO, len(pets))
	for i, p := range pets {
		dtos[i] = toPetDTO(p)
	}
	return dtos, nil
}

// GetPet returns a single pet profile by ID, verifying ownership.
func (s *PetService) GetPet(ctx context.Context, ownerID, petID uuid.UUID) (*PetDTO, error) {
	pet, err := s.ownedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}
	result := toPetDTO(pet)
	return &result, nil
}

// UpdatePet updates a pet profile, verifying ownership.
func (s *PetService) UpdatePet(ctx context.Context, ownerID, petID uuid.UUID, req UpdatePetRequest) (*PetDTO, error) {
	pet, err := s.ownedPet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	if err := pet.Update(petDomain.UpdateParams{
		Name:         req.Name,
		Species:      req.Species,
		Breed:        req.Breed,
		WeightKg:     req.WeightKg,
		AgeMonths:    req.AgeMonths,
		Neutered:     req.Neutered,
		SpecialNeeds: req.SpecialNeeds,
		Notes:        req.Notes,
	}); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		s.logger.Error("failed to update pet", zap.Error(err))
		return nil, fmt.Errorf("failed to update pet: %w", err)
	}

	s.logger.Info("pet profile updated", zap.String("pet_id", petID.String()))
	result := toPetDTO(pet)
	return &result, nil
}

// DeletePet archives a pet profile, verifying ownership. Archived pets stay
// referenced by past bookings.
func (s *PetService) DeletePet(ctx context.Context, ownerID, petID uuid.UUID) error {
	pet, err := s.ownedPet(ctx, ownerID, petID)
	if err != nil {
		return err
	}

	pet.Archive()
	if err := s.repo.Update(ctx, pet); err != nil {
		s.logger.Error("failed to archive pet", zap.Error(err))
		return fmt.Errorf("failed to archive pet: %w", err)
	}

	s.logger.Info("pet profile archived", zap.String("pet_id", petID.String()))
	return nil
}

func (s *PetService) ownedPet(ctx context.Context, ownerID, petID uuid.UUID) (*petDomain.Pet, error) {
	pet, err := s.repo.FindByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !pet.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("you do not own this pet profile")
	}
	return pet, nil
}

func toPetDTO(p *petDomain.Pet) PetDTO {
	return PetDTO{
		ID:           p.ID(),
		OwnerID:      p.OwnerID(),
		Name:         p.Name(),
		Species:      p.Species(),
		Breed:        p.Breed(),
		WeightKg:     p.WeightKg(),
		SizeBucket:   string(providerDomain.SizeBucketFor(p.WeightKg())),
		AgeMonths:    p.AgeMonths(),
		Neutered:     p.Neutered(),
		SpecialNeeds: p.SpecialNeeds(),
		Notes:        p.Notes(),
		Status:       string(p.Status()),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}
}
