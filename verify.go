package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/jmcadam/authflow/internal"
	"github.com/jmcadam/authflow/mail"
)

// VerifyEmail consumes a verification token. The matching account becomes
// verified exactly once; the token fields are cleared in the same mutation,
// so replaying the token fails with ErrTokenInvalid while IsVerified stays
// true.
func (s *Service) VerifyEmail(ctx context.Context, token string) (Summary, error) {
	if s == nil || s.store == nil {
		return Summary{}, ErrServiceNotReady
	}
	if token == "" {
		s.metricInc(MetricVerifyFailure)
		s.emitAudit(ctx, auditEventEmailVerify, false, "", "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "empty_token",
			}
		})
		return Summary{}, ErrTokenInvalid
	}

	digest := internal.HashActionToken(token)
	account, err := s.store.GetByVerificationToken(ctx, digest, time.Now())
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.metricInc(MetricVerifyFailure)
			s.emitAudit(ctx, auditEventEmailVerify, false, "", "", ErrTokenInvalid, nil)
			return Summary{}, ErrTokenInvalid
		}
		return Summary{}, err
	}

	account, err = s.store.Mutate(ctx, account.ID, func(a *Account) error {
		if !internal.DigestsEqual(a.VerificationTokenHash, digest) {
			// Token rotated or consumed between lookup and mutation.
			return ErrTokenInvalid
		}
		a.IsVerified = true
		a.VerificationTokenHash = ""
		a.VerificationExpires = time.Time{}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			s.metricInc(MetricVerifyFailure)
			s.emitAudit(ctx, auditEventEmailVerify, false, "", "", ErrTokenInvalid, nil)
		}
		return Summary{}, err
	}

	subject, body := mail.WelcomeEmail(account.FullName(), s.config.Notifier.BaseURL+"/dashboard")
	s.notify(ctx, account.Email, subject, body, "welcome")

	s.metricInc(MetricVerifySuccess)
	s.emitAudit(ctx, auditEventEmailVerify, true, account.ID, account.Email, nil, nil)
	return account.Summary(), nil
}

// ResendVerification rotates the verification token for an unverified
// account and resends the mail. The previous token stops working as soon as
// the rotation is persisted.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if s == nil || s.store == nil {
		return ErrServiceNotReady
	}

	email = normalizeEmail(email)
	if err := validateEmailOnly(email); err != nil {
		s.emitAudit(ctx, auditEventVerificationResend, false, "", email, err, nil)
		return err
	}

	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.emitAudit(ctx, auditEventVerificationResend, false, "", email, ErrAccountNotFound, nil)
		}
		return err
	}
	if account.IsVerified {
		s.emitAudit(ctx, auditEventVerificationResend, false, account.ID, email, ErrAlreadyVerified, nil)
		return ErrAlreadyVerified
	}

	token, digest, err := internal.NewActionToken()
	if err != nil {
		return err
	}

	expires := time.Now().Add(s.config.Verification.TokenTTL)
	account, err = s.store.Mutate(ctx, account.ID, func(a *Account) error {
		if a.IsVerified {
			return ErrAlreadyVerified
		}
		a.VerificationTokenHash = digest
		a.VerificationExpires = expires
		return nil
	})
	if err != nil {
		return err
	}

	subject, body := mail.VerificationEmail(account.FullName(), s.verificationLink(token))
	s.notify(ctx, email, subject, body, "email_verification")

	s.metricInc(MetricVerificationResent)
	s.emitAudit(ctx, auditEventVerificationResend, true, account.ID, email, nil, nil)
	return nil
}
