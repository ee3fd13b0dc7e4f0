package authflow

import (
	"context"
	"errors"
	"time"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token   string
	Account Summary
}

// Login authenticates an email/password pair and issues a session token.
//
// Check order is lock, then password, then verification status. The lock
// check runs before any hash comparison so a locked account costs no Argon2
// work, and an unknown email is indistinguishable from a wrong password.
func (s *Service) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if s == nil || s.store == nil || s.hasher == nil || s.issuer == nil {
		return nil, ErrServiceNotReady
	}

	email = normalizeEmail(email)
	if email == "" || plaintext == "" {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLogin, false, "", email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "empty_input",
			}
		})
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.metricInc(MetricLoginFailure)
			s.emitAudit(ctx, auditEventLogin, false, "", email, ErrInvalidCredentials, func() map[string]string {
				return map[string]string{
					"reason": "unknown_email",
				}
			})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	if account.Locked(now) {
		s.metricInc(MetricLoginLocked)
		s.emitAudit(ctx, auditEventLogin, false, account.ID, email, ErrAccountLocked, nil)
		return nil, ErrAccountLocked
	}

	ok, err := s.hasher.Verify(plaintext, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		if ferr := s.recordLoginFailure(ctx, account.ID); ferr != nil {
			return nil, ferr
		}
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLogin, false, account.ID, email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if !account.IsVerified {
		s.metricInc(MetricLoginUnverified)
		s.emitAudit(ctx, auditEventLogin, false, account.ID, email, ErrAccountUnverified, nil)
		return nil, ErrAccountUnverified
	}

	// Success clears any stale attempt counter or expired lock and stamps
	// the login time in the same atomic step.
	account, err = s.store.ClearLockState(ctx, account.ID, now)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(account.ID, now)
	if err != nil {
		s.emitAudit(ctx, auditEventLogin, false, account.ID, email, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issue_failed",
			}
		})
		return nil, err
	}

	s.metricInc(MetricLoginSuccess)
	s.emitAudit(ctx, auditEventLogin, true, account.ID, email, nil, nil)
	return &LoginResult{
		Token:   token,
		Account: account.SessionSummary(),
	}, nil
}

// recordLoginFailure advances the lockout state machine inside one store
// transaction, so two racing failures cannot lose an increment.
func (s *Service) recordLoginFailure(ctx context.Context, accountID string) error {
	cfg := s.config.Lockout
	_, err := s.store.Mutate(ctx, accountID, func(a *Account) error {
		now := time.Now()
		if a.Locked(now) {
			// A concurrent failure already armed the lock.
			return nil
		}
		if !a.LockUntil.IsZero() {
			// Previous lock expired: self-heal before counting this failure.
			a.LockUntil = time.Time{}
			if !cfg.PreserveAttemptsThroughLock {
				a.LoginAttempts = 0
			}
		}
		a.LoginAttempts++
		if a.LoginAttempts >= cfg.Threshold {
			a.LockUntil = now.Add(cfg.Window)
			if !cfg.PreserveAttemptsThroughLock {
				a.LoginAttempts = 0
			}
		}
		return nil
	})
	return err
}
