package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrDependency   = errors.New("dependency failure")
)

// Error is a named registration-flow failure. Its message is safe to show to
// clients; the category it unwraps to decides the response status.
type Error struct {
	kind error
	msg  string
	base *Error
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Is makes an error built with With match the flow error it extends.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.base != nil && t == e.base
}

// With returns a copy of e whose client-facing message carries detail.
// Only text that is safe to show to clients belongs in detail.
func (e *Error) With(detail string) *Error {
	base := e
	if e.base != nil {
		base = e.base
	}
	return &Error{kind: e.kind, msg: e.msg + ": " + detail, base: base}
}

// Registration flow errors.
var (
	ErrInvalidSecret         = newError(ErrUnauthorized, "invalid password")
	ErrInvalidRequest        = newError(ErrBadRequest, "invalid registration details")
	ErrInvalidInviteCode     = newError(ErrBadRequest, "invalid or expired registration code")
	ErrNoPendingVerification = newError(ErrBadRequest, "invalid verification request")
	ErrCodeMismatch          = newError(ErrBadRequest, "invalid verification code")
	ErrUsernameTaken         = newError(ErrConflict, "username already exists")
	ErrEmailTaken            = newError(ErrConflict, "email already in use")
	ErrVerificationPending   = newError(ErrConflict, "email verification already pending")
	ErrNotificationFailed    = newError(ErrDependency, "failed to send verification email")
	ErrPersistence           = newError(ErrDependency, "failed to create account")
	ErrRegistrationFailed    = newError(ErrDependency, "registration failed")
	ErrAuthenticationFailed  = newError(ErrDependency, "authentication failed")
)
