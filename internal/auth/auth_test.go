package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-backend/internal/config"
	"hostel-backend/internal/models"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Issuer = "hostel-backend"
	cfg.JWT.ExpirationHours = 1
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig("s3cret"))

	token, err := m.GenerateToken(&models.Admin{ID: 42, Email: "owner@example.com"})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.AdminID)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewJWTManager(testConfig("one")).GenerateToken(&models.Admin{ID: 1})
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("two")).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := NewJWTManager(testConfig("s3cret")).ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
