package authflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// testConfig returns the default configuration tuned down for test speed:
// minimal Argon2 cost and a fixed HMAC secret.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.SessionToken.PrivateKey = []byte("test-secret-key-for-hs256-signing")
	cfg.Notifier.BaseURL = "http://app.test"
	return cfg
}

// stubStore is an in-memory AccountStore with the same atomicity contract as
// the Redis implementation: Create claims the email or fails, Mutate is a
// serialized read-modify-write.
type stubStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	byEmail  map[string]string

	failNext error
}

func newStubStore() *stubStore {
	return &stubStore{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
	}
}

func (s *stubStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *stubStore) Create(ctx context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, exists := s.byEmail[account.Email]; exists {
		return ErrEmailExists
	}
	clone := *account
	s.accounts[account.ID] = &clone
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *stubStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *stubStore) GetByVerificationToken(ctx context.Context, digest string, now time.Time) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.VerificationTokenHash == digest && account.VerificationExpires.After(now) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *stubStore) GetByResetToken(ctx context.Context, digest string, now time.Time) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.ResetTokenHash == digest && account.ResetExpires.After(now) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *stubStore) Mutate(ctx context.Context, id string, fn func(*Account) error) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	updated := *account
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.Version = account.Version + 1
	s.accounts[id] = &updated
	clone := updated
	return &clone, nil
}

func (s *stubStore) ClearLockState(ctx context.Context, id string, now time.Time) (*Account, error) {
	return s.Mutate(ctx, id, func(a *Account) error {
		a.LoginAttempts = 0
		a.LockUntil = time.Time{}
		a.LastLogin = now
		return nil
	})
}

// patch edits a stored record directly, bypassing the store contract. Test
// setup only.
func (s *stubStore) patch(t *testing.T, id string, fn func(*Account)) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		t.Fatalf("patch: account %q not found", id)
	}
	fn(account)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *stubNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (n *stubNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatalf("no mail was sent")
	}
	return n.sent[len(n.sent)-1]
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func newTestService(t *testing.T) (*Service, *stubStore, *stubNotifier) {
	t.Helper()
	store := newStubStore()
	notifier := &stubNotifier{}
	service, err := New().
		WithConfig(testConfig()).
		WithStore(store).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(service.Close)
	return service, store, notifier
}

// mailToken pulls the action token out of a mailed link, e.g.
// ".../verify-email/<token>".
func mailToken(t *testing.T, body, pathMarker string) string {
	t.Helper()
	idx := strings.Index(body, pathMarker)
	if idx < 0 {
		t.Fatalf("mail body has no %q link", pathMarker)
	}
	rest := body[idx+len(pathMarker):]
	end := strings.IndexAny(rest, "\"< \n")
	if end < 0 {
		t.Fatalf("mail link is not delimited: %q", rest)
	}
	return rest[:end]
}

var validRegistration = RegisterInput{
	FirstName: "Ann",
	LastName:  "Lee",
	Email:     "ann@example.com",
	Password:  "Secret1pass",
}

// registerVerified runs the full registration and verification round trip
// and returns the account ID.
func registerVerified(t *testing.T, service *Service, notifier *stubNotifier, in RegisterInput) string {
	t.Helper()
	ctx := context.Background()

	user, err := service.Register(ctx, in)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token := mailToken(t, notifier.last(t).Body, "/verify-email/")
	if _, err := service.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return user.ID
}

func mustBeSentinel(t *testing.T, err, sentinel error) {
	t.Helper()
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want %v", err, sentinel)
	}
}
