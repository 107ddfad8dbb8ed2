package domain

import "time"

// InviteCode gates access to the registration form.
type InviteCode struct {
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// PendingUser is a registration that passed the invite gate but whose email
// address is not verified yet. The password is already hashed.
type PendingUser struct {
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type IssueInviteRequest struct {
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	TempCode string `json:"tempCode"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
