package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 6)
		for _, c := range otp {
			assert.True(t, c >= '0' && c <= '9')
		}
		seen[otp] = true
	}
	// 50 draws from a million values colliding every time would mean a
	// broken generator
	assert.Greater(t, len(seen), 1)
}

func TestIsOTPExpired(t *testing.T) {
	assert.True(t, IsOTPExpired(nil))

	past := time.Now().Add(-time.Minute)
	assert.True(t, IsOTPExpired(&past))

	future := time.Now().Add(5 * time.Minute)
	assert.False(t, IsOTPExpired(&future))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "participantId", "abc-123", "who@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)

	id, ok := SubjectFromClaims(claims, "participantId")
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, "who@example.com", claims["email"])

	_, ok = SubjectFromClaims(claims, "adminId")
	assert.False(t, ok)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken([]byte("secret-a"), "adminId", "a1", "admin@example.com", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("secret-b"), token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(secret, "adminId", "a1", "admin@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(secret, token)
	assert.Error(t, err)
}
