package dto

import "github.com/shiftwise/volunteer-api/internal/models"

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the account summary embedded in a login response.
type UserInfo struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	FullName    string          `json:"full_name"`
	Role        models.UserRole `json:"role"`
	VolunteerID string          `json:"volunteer_id,omitempty"`
}

// LoginResponse returns the issued access token.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	FullName    string          `json:"full_name" validate:"required"`
	Password    string          `json:"password" validate:"required,min=8"`
	Role        models.UserRole `json:"role" validate:"required,oneof=ADMIN VOLUNTEER"`
	VolunteerID string          `json:"volunteer_id,omitempty"`
}
