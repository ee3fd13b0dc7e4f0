package authflow

import (
	"context"
	"testing"
	"time"
)

func TestLockoutArmsAtThreshold(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	id := registerVerified(t, service, notifier, validRegistration)

	// The threshold'th failure itself still reads as bad credentials; the
	// lock bites on the attempt after it.
	for i := 0; i < 5; i++ {
		_, err := service.Login(ctx, validRegistration.Email, "Wrong1password")
		mustBeSentinel(t, err, ErrInvalidCredentials)
	}

	stored, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !stored.Locked(time.Now()) {
		t.Fatalf("account should be locked after 5 failures")
	}

	// Even the correct password is rejected while locked, without touching
	// the hash comparison.
	_, err = service.Login(ctx, validRegistration.Email, validRegistration.Password)
	mustBeSentinel(t, err, ErrAccountLocked)
}

func TestLockoutCaseInsensitiveEmail(t *testing.T) {
	service, _, notifier := newTestService(t)
	ctx := context.Background()

	in := validRegistration
	in.Email = "ANN@EX.com"
	registerVerified(t, service, notifier, in)

	// Failures against any casing of the address hit the same counter.
	for i := 0; i < 5; i++ {
		_, err := service.Login(ctx, "ann@ex.com", "Wrong1password")
		mustBeSentinel(t, err, ErrInvalidCredentials)
	}

	_, err := service.Login(ctx, "ANN@EX.com", in.Password)
	mustBeSentinel(t, err, ErrAccountLocked)
}

func TestLockoutCounterResetsWhenLockArms(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	id := registerVerified(t, service, notifier, validRegistration)

	for i := 0; i < 5; i++ {
		_, _ = service.Login(ctx, validRegistration.Email, "Wrong1password")
	}

	stored, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.LoginAttempts != 0 {
		t.Fatalf("LoginAttempts = %d, want 0 once the lock armed", stored.LoginAttempts)
	}
	if stored.LockUntil.IsZero() {
		t.Fatalf("LockUntil was not set")
	}
}

func TestLockoutExpiredLockSelfHeals(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	id := registerVerified(t, service, notifier, validRegistration)

	// Simulate a lock whose window already passed.
	store.patch(t, id, func(a *Account) {
		a.LoginAttempts = 0
		a.LockUntil = time.Now().Add(-time.Minute)
	})

	// The stale lock no longer blocks, and the next failure counts from a
	// clean slate.
	_, err := service.Login(ctx, validRegistration.Email, "Wrong1password")
	mustBeSentinel(t, err, ErrInvalidCredentials)

	stored, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.LoginAttempts != 1 {
		t.Fatalf("LoginAttempts = %d, want 1", stored.LoginAttempts)
	}
	if !stored.LockUntil.IsZero() {
		t.Fatalf("expired lock was not cleared")
	}
}

func TestLockoutSuccessAfterExpiryClearsState(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	id := registerVerified(t, service, notifier, validRegistration)

	store.patch(t, id, func(a *Account) {
		a.LoginAttempts = 3
		a.LockUntil = time.Now().Add(-time.Minute)
	})

	result, err := service.Login(ctx, validRegistration.Email, validRegistration.Password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Account.LastLogin == nil {
		t.Fatalf("LastLogin missing from login summary")
	}

	stored, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.LoginAttempts != 0 || !stored.LockUntil.IsZero() {
		t.Fatalf("lock state not cleared: attempts=%d lockUntil=%v", stored.LoginAttempts, stored.LockUntil)
	}
}

func TestLockoutPreserveAttemptsThroughLock(t *testing.T) {
	store := newStubStore()
	notifier := &stubNotifier{}
	cfg := testConfig()
	cfg.Lockout.PreserveAttemptsThroughLock = true
	service, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(service.Close)

	ctx := context.Background()
	id := registerVerified(t, service, notifier, validRegistration)

	for i := 0; i < 5; i++ {
		_, _ = service.Login(ctx, validRegistration.Email, "Wrong1password")
	}

	stored, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.LoginAttempts != 5 {
		t.Fatalf("LoginAttempts = %d, want 5 preserved through lock", stored.LoginAttempts)
	}

	// After the window, one more failure re-arms immediately: the counter
	// resumed at the threshold instead of restarting.
	store.patch(t, id, func(a *Account) {
		a.LockUntil = time.Now().Add(-time.Minute)
	})

	_, err = service.Login(ctx, validRegistration.Email, "Wrong1password")
	mustBeSentinel(t, err, ErrInvalidCredentials)

	stored, err = store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !stored.Locked(time.Now()) {
		t.Fatalf("lock should have re-armed on the first post-expiry failure")
	}
}
