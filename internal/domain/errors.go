package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Verification workflow errors. The verification store itself never returns these;
	// the registration and password-reset flows raise them from its boolean results.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrNoPendingWorkflow    = errors.New("no pending workflow")
	ErrDuplicateRequest     = errors.New("duplicate request")
)
