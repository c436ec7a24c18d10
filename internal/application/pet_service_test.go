package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/repository"
)

func TestPetService_Lifecycle(t *testing.T) {
	svc := NewPetService(repository.NewMemoryPetRepository(), zap.NewNop())
	owner := uuid.New()
	ctx := context.Background()

	created, err := svc.CreatePet(ctx, owner, CreatePetRequest{Name: "Rex", Species: "dog", WeightKg: 22, AgeMonths: 30})
	require.NoError(t, err)
	assert.Equal(t, "Large", created.SizeBucket)
	assert.False(t, created.Neutered)

	updated, err := svc.UpdatePet(ctx, owner, created.ID, UpdatePetRequest{WeightKg: floatPtr(15), Neutered: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Medium", updated.SizeBucket)
	assert.True(t, updated.Neutered)
	assert.Equal(t, "Rex", updated.Name)

	_, err = svc.UpdatePet(ctx, owner, created.ID, UpdatePetRequest{Name: strPtr("  ")})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.GetPet(ctx, uuid.New(), created.ID)
	assert.True(t, domain.IsForbidden(err))

	mine, err := svc.GetMyPets(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.DeletePet(ctx, owner, created.ID))
	mine, err = svc.GetMyPets(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestPetService_CreateValidation(t *testing.T) {
	svc := NewPetService(repository.NewMemoryPetRepository(), zap.NewNop())

	_, err := svc.CreatePet(context.Background(), uuid.New(), CreatePetRequest{Name: "Rex", Species: "dog", WeightKg: -1})
	assert.True(t, domain.IsValidation(err))
}

func boolPtr(b bool) *bool { return &b }
