package domain

import "time"

type TokenPurpose string

const (
	PurposeConfirmEmail  TokenPurpose = "confirm_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

type ConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type VerificationToken struct {
	ID        int64
	AccountID int64
	Purpose   TokenPurpose
	Token     string
	ExpiresAt time.Time
	Used      bool
}
