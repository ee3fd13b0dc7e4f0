package authflow

import (
	"errors"
	"time"
)

// Config carries every tunable of the service. It is supplied once through
// [Builder.WithConfig] and treated as immutable after Build; no operation
// reads ambient environment state.
type Config struct {
	Password     PasswordConfig
	SessionToken SessionTokenConfig
	Lockout      LockoutConfig
	Verification VerificationConfig
	Reset        ResetConfig
	Notifier     NotifierConfig
	Audit        AuditConfig
	Metrics      MetricsConfig

	// DefaultRole is assigned to every new account. Registration never
	// accepts a caller-chosen role.
	DefaultRole string
}

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SessionTokenConfig configures the signed bearer credential issued on login.
type SessionTokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
LOCKOUT POLICY
====================================
*/

// LockoutConfig drives the failed-login state machine. The Threshold'th
// consecutive failure arms a lock for Window; the lock clears lazily once it
// expires and eagerly on the next successful login.
type LockoutConfig struct {
	Threshold int
	Window    time.Duration
	// PreserveAttemptsThroughLock keeps the failure counter when a lock is
	// armed, so failures after lock expiry resume from the threshold instead
	// of zero. By default the counter restarts after every lock.
	PreserveAttemptsThroughLock bool
}

// VerificationConfig bounds email-verification tokens.
type VerificationConfig struct {
	TokenTTL time.Duration
}

// ResetConfig bounds password-reset tokens.
type ResetConfig struct {
	TokenTTL time.Duration
}

// NotifierConfig bounds outbound mail calls and anchors the links embedded in
// them.
type NotifierConfig struct {
	// SendTimeout caps every Notifier.Send call. Zero disables the cap.
	SendTimeout time.Duration
	// BaseURL is the client-facing origin used to build verification and
	// reset links, e.g. "https://app.example.com".
	BaseURL string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking: events beyond the buffer are
	// counted and discarded instead of back-pressuring the request path.
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production baseline: Argon2id 64 MB/t=3/p=2,
// 24h session tokens, lockout after 5 failures for 2h, 24h verification and
// 1h reset tokens.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		SessionToken: SessionTokenConfig{
			TTL:           24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "authflow",
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Window:    2 * time.Hour,
		},
		Verification: VerificationConfig{
			TokenTTL: 24 * time.Hour,
		},
		Reset: ResetConfig{
			TokenTTL: time.Hour,
		},
		Notifier: NotifierConfig{
			SendTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		DefaultRole: RoleUser,
	}
}

func validateConfig(cfg Config) error {
	if cfg.SessionToken.TTL <= 0 {
		return errors.New("session token TTL must be positive")
	}
	if cfg.Lockout.Threshold < 1 {
		return errors.New("lockout threshold must be >= 1")
	}
	if cfg.Lockout.Window <= 0 {
		return errors.New("lockout window must be positive")
	}
	if cfg.Verification.TokenTTL <= 0 {
		return errors.New("verification token TTL must be positive")
	}
	if cfg.Reset.TokenTTL <= 0 {
		return errors.New("reset token TTL must be positive")
	}
	if cfg.Notifier.SendTimeout < 0 {
		return errors.New("notifier send timeout must not be negative")
	}
	if cfg.DefaultRole == "" {
		return errors.New("default role must not be empty")
	}
	return nil
}
