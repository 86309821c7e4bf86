package httputil

import (
	"context"
	"net/http"

	"rdm/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const claimsKey contextKey = "claims"

// WithClaims attaches verified JWT claims to the request context
func WithClaims(r *http.Request, claims *models.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), claimsKey, claims)
	return r.WithContext(ctx)
}

// GetClaims retrieves the verified claims, nil if the request is anonymous
func GetClaims(r *http.Request) *models.Claims {
	claims, _ := r.Context().Value(claimsKey).(*models.Claims)
	return claims
}

// Actor returns the auditing identity for the request: the claims email,
// falling back to the subject when the token carries no email.
func Actor(r *http.Request) string {
	claims := GetClaims(r)
	if claims == nil {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.Subject
}

// OrganizationID returns the organization scope of the request, empty when
// the request is anonymous.
func OrganizationID(r *http.Request) string {
	claims := GetClaims(r)
	if claims == nil {
		return ""
	}
	return claims.OrganizationID
}
