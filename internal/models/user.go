package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole enumerates application roles.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleVolunteer UserRole = "VOLUNTEER"
)

// User is an application account. Volunteer accounts carry a reference to
// their volunteer record; admin accounts do not.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	VolunteerID  *string   `db:"volunteer_id" json:"volunteer_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID      string   `json:"uid"`
	Role        UserRole `json:"role"`
	Email       string   `json:"email"`
	VolunteerID string   `json:"volunteer_id,omitempty"`
	jwt.RegisteredClaims
}
