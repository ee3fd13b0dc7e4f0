package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmcadam/authflow/internal"
	"github.com/jmcadam/authflow/mail"
)

// RegisterInput carries the registration request fields. Role is never part
// of the input; every new account receives Config.DefaultRole.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register validates the input, creates an unverified account, and issues a
// verification token. The verification mail is sent best-effort: a delivery
// failure does not roll back the created account, the resend flow covers it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Summary, error) {
	if s == nil || s.store == nil || s.hasher == nil {
		return Summary{}, ErrServiceNotReady
	}

	if err := validateRegistration(in); err != nil {
		s.metricInc(MetricRegisterInvalid)
		s.emitAudit(ctx, auditEventRegister, false, "", normalizeEmail(in.Email), err, func() map[string]string {
			return map[string]string{
				"reason": "validation",
			}
		})
		return Summary{}, err
	}

	email := normalizeEmail(in.Email)

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.emitAudit(ctx, auditEventRegister, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "hash_failed",
			}
		})
		return Summary{}, err
	}

	token, digest, err := internal.NewActionToken()
	if err != nil {
		return Summary{}, err
	}

	now := time.Now()
	account := &Account{
		ID:                    uuid.NewString(),
		Email:                 email,
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		PasswordHash:          hash,
		Role:                  s.config.DefaultRole,
		IsVerified:            false,
		VerificationTokenHash: digest,
		VerificationExpires:   now.Add(s.config.Verification.TokenTTL),
		CreatedAt:             now,
	}

	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailExists) {
			s.metricInc(MetricRegisterConflict)
			s.emitAudit(ctx, auditEventRegister, false, "", email, ErrEmailExists, nil)
			return Summary{}, ErrEmailExists
		}
		s.emitAudit(ctx, auditEventRegister, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "store_create_failed",
			}
		})
		return Summary{}, err
	}

	subject, body := mail.VerificationEmail(account.FullName(), s.verificationLink(token))
	s.notify(ctx, email, subject, body, "email_verification")

	s.metricInc(MetricRegisterSuccess)
	s.emitAudit(ctx, auditEventRegister, true, account.ID, email, nil, nil)
	return account.Summary(), nil
}

func (s *Service) verificationLink(token string) string {
	return s.config.Notifier.BaseURL + "/verify-email/" + token
}

func (s *Service) resetLink(token string) string {
	return s.config.Notifier.BaseURL + "/reset-password/" + token
}
