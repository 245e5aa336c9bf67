package auth

import (
	"testing"
	"time"

	"punchcard/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwtConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "punchcard",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := jwtConfig()
	token, err := GenerateAccessToken(cfg, 7, "owner@cafe.test", "MERCHANT", 3)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "owner@cafe.test", claims.Email)
	assert.Equal(t, "MERCHANT", claims.Role)
	assert.EqualValues(t, 3, claims.ActiveCardID)
	assert.Equal(t, "punchcard", claims.Issuer)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := jwtConfig()
	token, err := GenerateAccessToken(cfg, 7, "owner@cafe.test", "MERCHANT", 0)
	require.NoError(t, err)

	other := *cfg
	other.AccessSecret = "different"
	_, err = ParseAccessToken(&other, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(cfg, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := jwtConfig()
	cfg.AccessExpiry = -time.Minute
	token, err := GenerateAccessToken(cfg, 7, "owner@cafe.test", "MERCHANT", 0)
	require.NoError(t, err)

	_, err = ParseAccessToken(jwtConfig(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
