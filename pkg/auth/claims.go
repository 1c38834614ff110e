package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// StaffPayload is what the identity gateway puts in a staff token.
type StaffPayload struct {
	Subject string
	Email   string
	Roles   []string
	IsAdmin *bool
}

// StaffClaims is the verified staff token. Subject carries the identity
// provider user id.
type StaffClaims struct {
	Email   string   `json:"email,omitempty"`
	Roles   []string `json:"roles,omitempty"`
	IsAdmin *bool    `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}
