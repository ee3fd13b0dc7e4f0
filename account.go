package authflow

import (
	"context"
	"time"
)

// RoleUser is the role assigned to every account at registration. The role
// field is stored and echoed back on login but carries no authorization
// semantics inside this package.
const RoleUser = "user"

// Account is the persistent account record. Email is normalized to lowercase
// before storage and immutable afterwards, as are ID and CreatedAt.
//
// Token fields hold the SHA-256 hex digest of the issued token, never the
// token itself. A digest with a companion expiry at or before "now" is
// treated as absent everywhere.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`

	IsVerified            bool      `json:"isVerified"`
	VerificationTokenHash string    `json:"-"`
	VerificationExpires   time.Time `json:"-"`
	ResetTokenHash        string    `json:"-"`
	ResetExpires          time.Time `json:"-"`

	LoginAttempts int       `json:"-"`
	LockUntil     time.Time `json:"-"`
	LastLogin     time.Time `json:"lastLogin,omitzero"`
	CreatedAt     time.Time `json:"createdAt"`

	// Version advances on every store mutation and backs the store's
	// compare-and-swap. Callers never set it.
	Version uint64 `json:"-"`
}

// Locked reports whether a lockout window is active at the given instant.
// A LockUntil in the past is equivalent to no lock at all.
func (a *Account) Locked(now time.Time) bool {
	return now.Before(a.LockUntil)
}

// FullName joins the display names for notification templates.
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Summary is the client-visible projection of an account. Credential and
// token fields never appear here.
type Summary struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	IsVerified bool       `json:"isVerified"`
	Role       string     `json:"role,omitempty"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

// Summary returns the registration-shaped projection (no role, no lastLogin).
func (a *Account) Summary() Summary {
	return Summary{
		ID:         a.ID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		IsVerified: a.IsVerified,
	}
}

// SessionSummary returns the login-shaped projection including role and the
// most recent login time.
func (a *Account) SessionSummary() Summary {
	s := a.Summary()
	s.Role = a.Role
	if !a.LastLogin.IsZero() {
		last := a.LastLogin
		s.LastLogin = &last
	}
	return s
}

// AccountStore is the persistence contract. Implementations must make every
// mutation atomic per account: Mutate is a single read-modify-write (retried
// on conflict), and Create either installs both the record and the email
// uniqueness claim or neither.
//
// Lookup methods return ErrAccountNotFound (or an error wrapping it) when no
// live record matches; token lookups additionally treat digests whose expiry
// is not strictly in the future as absent. Transient backend failures wrap
// ErrStoreUnavailable.
type AccountStore interface {
	// Create persists a new account. The email uniqueness check and the
	// insert are one atomic step; a duplicate returns ErrEmailExists.
	Create(ctx context.Context, account *Account) error

	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByVerificationToken resolves a verification-token digest whose
	// expiry is strictly after now.
	GetByVerificationToken(ctx context.Context, digest string, now time.Time) (*Account, error)
	// GetByResetToken resolves a reset-token digest whose expiry is strictly
	// after now.
	GetByResetToken(ctx context.Context, digest string, now time.Time) (*Account, error)

	// Mutate applies fn to the current record and persists the result as one
	// atomic read-modify-write. fn must not change ID, Email, or CreatedAt;
	// fn returning an error aborts without persisting and propagates the
	// error unchanged. The returned account reflects the persisted state.
	Mutate(ctx context.Context, id string, fn func(*Account) error) (*Account, error)

	// ClearLockState atomically zeroes LoginAttempts and LockUntil and
	// stamps LastLogin with now. Used on successful login.
	ClearLockState(ctx context.Context, id string, now time.Time) (*Account, error)
}

// Notifier delivers outbound mail. Delivery is best-effort on every flow that
// uses it: a Send failure is audited but never rolls back the account
// mutation that preceded it.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
