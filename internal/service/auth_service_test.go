package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
)

func issueToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID: "u1",
		Role:   "instructor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService("secret", zap.NewNop())
	token := issueToken(t, "secret", time.Now().Add(time.Hour))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "instructor", claims.Role)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService("secret", zap.NewNop())
	token := issueToken(t, "other", time.Now().Add(time.Hour))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := NewAuthService("secret", zap.NewNop())
	token := issueToken(t, "secret", time.Now().Add(-time.Hour))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}
