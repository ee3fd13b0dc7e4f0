package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/jmcadam/authflow/jwt"
	"github.com/jmcadam/authflow/password"
)

// Service orchestrates every credential-lifecycle operation. Instances are
// built once through [Builder.Build] and are immutable afterwards; all methods
// are safe for concurrent use.
type Service struct {
	config   Config
	store    AccountStore
	notifier Notifier
	hasher   *password.Hasher
	issuer   *jwt.Issuer
	audit    *auditDispatcher
	metrics  *Metrics
}

// Close flushes and stops the audit dispatcher. The Service must not be used
// afterwards.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.audit != nil {
		s.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot returns a copy of the operation counters.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return s.metrics.Snapshot()
}

// ParseSessionToken validates a bearer credential and returns the account ID
// it was issued for. Used by the request-authentication middleware.
func (s *Service) ParseSessionToken(token string) (string, error) {
	if s == nil || s.issuer == nil {
		return "", ErrServiceNotReady
	}
	return s.issuer.Parse(token)
}

// GetAccount returns the session-shaped summary for a known account ID.
// Backs the dashboard endpoint.
func (s *Service) GetAccount(ctx context.Context, id string) (Summary, error) {
	if s == nil || s.store == nil {
		return Summary{}, ErrServiceNotReady
	}
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return account.SessionSummary(), nil
}

func (s *Service) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

func (s *Service) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID, email string,
	cause error,
	metadata func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	s.audit.Emit(ctx, event)
}

// notify delivers mail best-effort: failures and timeouts are audited and
// counted, never returned. The surrounding account mutation always stands.
func (s *Service) notify(ctx context.Context, to, subject, body, purpose string) {
	if s.notifier == nil {
		return
	}

	sendCtx := ctx
	if s.config.Notifier.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.config.Notifier.SendTimeout)
		defer cancel()
	}

	err := s.notifier.Send(sendCtx, to, subject, body)
	if err != nil {
		s.metricInc(MetricNotifyFailure)
		s.emitAudit(ctx, auditEventNotifySend, false, "", to, errors.Join(ErrNotifierUnavailable, err), func() map[string]string {
			return map[string]string{
				"purpose": purpose,
			}
		})
		return
	}

	s.emitAudit(ctx, auditEventNotifySend, true, "", to, nil, func() map[string]string {
		return map[string]string{
			"purpose": purpose,
		}
	})
}
