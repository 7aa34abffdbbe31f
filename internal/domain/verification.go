package domain

import "time"

// Purpose namespaces verification codes. The same email can hold a registration
// code and a password-reset code at the same time without either affecting the other.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
)

// Purposes lists every supported purpose.
var Purposes = []Purpose{PurposeRegistration, PurposePasswordReset}

func (p Purpose) Valid() bool {
	return p == PurposeRegistration || p == PurposePasswordReset
}

// VerificationCode is a point-in-time snapshot of a live one-time code.
type VerificationCode struct {
	Purpose   Purpose
	Email     string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Confirmed bool // set once the owner proved the code; the code still has to be consumed
}

// PendingRegistration is the candidate profile captured when registration is requested.
// It only becomes a User once the registration code is verified.
type PendingRegistration struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	MiddleName   string
	LastName     string
	PhoneNumber  string
	Street       string
	City         string
	State        string
	Country      string
	StagedAt     time.Time
}

// DisplayName is the name used when addressing the candidate in outbound messages.
func (p *PendingRegistration) DisplayName() string {
	if p.FirstName != "" {
		return p.FirstName
	}
	return p.Username
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
