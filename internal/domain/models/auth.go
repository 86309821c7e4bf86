package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims the server trusts after verification.
// Subject is the user id; Email is used as the auditing actor. Every data
// operation is scoped to OrganizationID.
type Claims struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organizationId"`
	jwt.RegisteredClaims
}
