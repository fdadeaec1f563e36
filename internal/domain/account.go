package domain

import "time"

type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile carries the public part of an account.
type Profile struct {
	AccountID   int64     `json:"account_id"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MeResponse struct {
	Account Account  `json:"account"`
	Profile *Profile `json:"profile,omitempty"`
}
