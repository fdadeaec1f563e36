package domain

import "time"

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterResponse carries a token only when the account is usable right
// away, that is when no email confirmation is pending.
type RegisterResponse struct {
	AccountID int64      `json:"account_id"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Message   string     `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
