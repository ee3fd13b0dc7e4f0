package authflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	// The two cases are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while a temporary lockout window is active.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountUnverified is returned when the password matched but the
	// account has not completed email verification.
	ErrAccountUnverified = errors.New("account email not verified")
	// ErrAccountNotFound is returned by lookups that reveal existence
	// (forgot-password, resend-verification) when no account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailExists is returned by Register when the normalized email is
	// already taken.
	ErrEmailExists = errors.New("email already registered")
	// ErrAlreadyVerified is returned by ResendVerification for accounts that
	// completed verification.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrTokenInvalid covers unknown, expired, and already-consumed
	// verification and reset tokens.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrStoreUnavailable wraps transient account-store failures.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrNotifierUnavailable wraps transient mail-delivery failures. It is
	// audited, never surfaced by the operations that treat delivery as
	// best-effort.
	ErrNotifierUnavailable = errors.New("notifier unavailable")
	// ErrServiceNotReady signals a Service used before Build completed.
	ErrServiceNotReady = errors.New("service not ready")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level failures for one request. It is
// returned by Register and ResetPassword and rendered with per-field detail
// at the boundary.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
