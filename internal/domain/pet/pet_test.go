package pet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

func TestNewPet(t *testing.T) {
	owner := uuid.New()

	p, err := NewPet(owner, " Milo ", "dog", "beagle", 12, 30, true, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Milo", p.Name())
	assert.True(t, p.IsActive())
	assert.True(t, p.IsOwnedBy(owner))
	assert.Equal(t, int64(1), p.Version())

	_, err = NewPet(uuid.Nil, "Milo", "dog", "", 12, 0, true, "", "")
	assert.True(t, domain.IsValidation(err))
	_, err = NewPet(owner, "", "dog", "", 12, 0, true, "", "")
	assert.True(t, domain.IsValidation(err))
	_, err = NewPet(owner, "Milo", "dog", "", 0, 0, true, "", "")
	assert.True(t, domain.IsValidation(err))
}

func TestPet_Update(t *testing.T) {
	p, err := NewPet(uuid.New(), "Milo", "dog", "", 12, 30, true, "", "")
	require.NoError(t, err)

	weight := 14.5
	neutered := false
	require.NoError(t, p.Update(UpdateParams{WeightKg: &weight, Neutered: &neutered}))
	assert.Equal(t, 14.5, p.WeightKg())
	assert.False(t, p.Neutered())
	assert.Equal(t, "Milo", p.Name())
	assert.Equal(t, int64(2), p.Version())

	bad := -1.0
	assert.True(t, domain.IsValidation(p.Update(UpdateParams{WeightKg: &bad})))
}

func TestDetermineRequirements(t *testing.T) {
	owner := uuid.New()
	dog, _ := NewPet(owner, "Rex", "dog", "", 30, 24, true, "", "")
	pup, _ := NewPet(owner, "Bo", "DOG", "", 5, 3, false, "", "")
	cat, _ := NewPet(owner, "Kit", "cat", "", 4, 12, true, "", "")

	req := DetermineRequirements([]*Pet{dog, pup, cat, nil})

	assert.Equal(t, []string{"Dog", "Cat"}, req.Species)
	assert.Equal(t, []float64{30, 5, 4}, req.WeightsKg)
	assert.True(t, req.AnyIntact)

	assert.False(t, DetermineRequirements([]*Pet{dog, cat}).AnyIntact)
}
