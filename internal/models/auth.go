package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries identity claims issued by the external auth provider.
// This service only verifies tokens; it never issues them.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
