package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/jmcadam/authflow/internal"
	"github.com/jmcadam/authflow/mail"
)

// ForgotPassword issues a reset token and mails the reset link.
//
// An unknown email returns ErrAccountNotFound, which the boundary renders as
// 404. This reveals account existence and is a deliberate contract choice;
// see DESIGN.md before hardening.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if s == nil || s.store == nil {
		return ErrServiceNotReady
	}

	email = normalizeEmail(email)
	if err := validateEmailOnly(email); err != nil {
		s.emitAudit(ctx, auditEventPasswordForgot, false, "", email, err, nil)
		return err
	}

	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.emitAudit(ctx, auditEventPasswordForgot, false, "", email, ErrAccountNotFound, nil)
		}
		return err
	}

	token, digest, err := internal.NewActionToken()
	if err != nil {
		return err
	}

	expires := time.Now().Add(s.config.Reset.TokenTTL)
	account, err = s.store.Mutate(ctx, account.ID, func(a *Account) error {
		a.ResetTokenHash = digest
		a.ResetExpires = expires
		return nil
	})
	if err != nil {
		return err
	}

	subject, body := mail.PasswordResetEmail(account.FullName(), s.resetLink(token))
	s.notify(ctx, email, subject, body, "password_reset")

	s.metricInc(MetricResetRequested)
	s.emitAudit(ctx, auditEventPasswordForgot, true, account.ID, email, nil, nil)
	return nil
}

// ResetPassword consumes a reset token and installs a new password hash. The
// same mutation clears the token fields and any lockout state, so a user who
// locked themselves out regains access immediately with the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s == nil || s.store == nil || s.hasher == nil {
		return ErrServiceNotReady
	}

	if err := validateNewPassword(newPassword); err != nil {
		s.metricInc(MetricResetFailure)
		s.emitAudit(ctx, auditEventPasswordReset, false, "", "", err, func() map[string]string {
			return map[string]string{
				"reason": "validation",
			}
		})
		return err
	}
	if token == "" {
		s.metricInc(MetricResetFailure)
		s.emitAudit(ctx, auditEventPasswordReset, false, "", "", ErrTokenInvalid, nil)
		return ErrTokenInvalid
	}

	digest := internal.HashActionToken(token)
	account, err := s.store.GetByResetToken(ctx, digest, time.Now())
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.metricInc(MetricResetFailure)
			s.emitAudit(ctx, auditEventPasswordReset, false, "", "", ErrTokenInvalid, nil)
			return ErrTokenInvalid
		}
		return err
	}

	// Hash outside the store transaction: Argon2 is deliberately slow and
	// fn may be retried on contention.
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	_, err = s.store.Mutate(ctx, account.ID, func(a *Account) error {
		if !internal.DigestsEqual(a.ResetTokenHash, digest) {
			return ErrTokenInvalid
		}
		a.PasswordHash = hash
		a.ResetTokenHash = ""
		a.ResetExpires = time.Time{}
		a.LoginAttempts = 0
		a.LockUntil = time.Time{}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			s.metricInc(MetricResetFailure)
			s.emitAudit(ctx, auditEventPasswordReset, false, account.ID, account.Email, ErrTokenInvalid, nil)
		}
		return err
	}

	s.metricInc(MetricResetSuccess)
	s.emitAudit(ctx, auditEventPasswordReset, true, account.ID, account.Email, nil, nil)
	return nil
}
