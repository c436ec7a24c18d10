package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "a@b.c", RoleProvider)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RoleProvider, claims.Role)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret", time.Minute, time.Hour)
	verifier := NewJWTManager("other", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.New(), "a@b.c", RoleOwner)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute, time.Hour)
	token, err := m.GenerateAccessToken(uuid.New(), "a@b.c", RoleOwner)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
