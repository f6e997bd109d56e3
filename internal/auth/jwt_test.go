package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, err := issuer.GenerateToken(42)
	require.NoError(t, err)

	userID, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret", time.Hour).GenerateToken(42)
	require.NoError(t, err)

	_, err = NewIssuer("other", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := NewIssuer("secret", -time.Minute).GenerateToken(42)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseUnverified(t *testing.T) {
	token, err := NewIssuer("secret", time.Hour).GenerateToken(7)
	require.NoError(t, err)

	claims, err := ParseUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)

	_, err = ParseUnverified("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
