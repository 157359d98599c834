package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// StudioClaims are the platform-issued session token claims carried by
// the studio-facing app on mutating requests
type StudioClaims struct {
	StudioSlug string `json:"studio_slug"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// CanManageStudio reports whether the token may trigger revalidation
// for the given slug
func (c *StudioClaims) CanManageStudio(slug string) bool {
	if c.Role == "platform_admin" {
		return true
	}
	return c.StudioSlug == slug
}

// ParseStudioToken validates an HS256 session token and returns its claims
func ParseStudioToken(tokenString string, secret []byte) (*StudioClaims, error) {
	claims := &StudioClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
