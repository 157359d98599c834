package auth

import (
	"context"
)

type contextKey string

var studioClaimsKey contextKey = "studio_claims"

func SetStudioClaims(ctx context.Context, claims *StudioClaims) context.Context {
	return context.WithValue(ctx, studioClaimsKey, claims)
}

func GetStudioClaims(ctx context.Context) *StudioClaims {
	val := ctx.Value(studioClaimsKey)
	if claims, ok := val.(*StudioClaims); ok {
		return claims
	}
	return nil
}
