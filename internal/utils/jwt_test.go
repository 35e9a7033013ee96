package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "anna@example.com", "GUIDE", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := VerifyToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", claims.Subject)
	assert.Equal(t, "GUIDE", claims.Role)
	assert.False(t, claims.IsRefresh())
}

func TestRefreshTokenCarriesMarker(t *testing.T) {
	tok, err := NewRefreshToken(testSecret, "bob@example.com", 7)
	require.NoError(t, err)

	claims, err := VerifyToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", claims.Subject)
	assert.True(t, claims.IsRefresh())
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "anna@example.com", "TRAVELER", 15)
	require.NoError(t, err)

	_, err = VerifyToken("other-secret", tok.Token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := VerifyToken(testSecret, "not.a.jwt")
	assert.Error(t, err)
}
