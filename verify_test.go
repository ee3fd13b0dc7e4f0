package authflow

import (
	"context"
	"testing"
	"time"
)

func TestVerifyEmailRoundTrip(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token := mailToken(t, notifier.last(t).Body, "/verify-email/")
	verified, err := service.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if !verified.IsVerified {
		t.Fatalf("summary should report verified")
	}
	if verified.ID != user.ID {
		t.Fatalf("verified ID = %q, want %q", verified.ID, user.ID)
	}

	stored, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !stored.IsVerified {
		t.Fatalf("account not marked verified")
	}
	if stored.VerificationTokenHash != "" || !stored.VerificationExpires.IsZero() {
		t.Fatalf("token fields must be cleared on verification")
	}

	// Verification unlocks login.
	if _, err := service.Login(ctx, validRegistration.Email, validRegistration.Password); err != nil {
		t.Fatalf("Login after verification failed: %v", err)
	}
}

func TestVerifyEmailSendsWelcomeMail(t *testing.T) {
	service, _, notifier := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, validRegistration); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token := mailToken(t, notifier.last(t).Body, "/verify-email/")
	if _, err := service.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if got := notifier.last(t).Subject; got != "Welcome to Our Platform!" {
		t.Fatalf("last mail subject = %q, want welcome mail", got)
	}
}

func TestVerifyEmailReplay(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token := mailToken(t, notifier.last(t).Body, "/verify-email/")

	if _, err := service.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("first VerifyEmail failed: %v", err)
	}

	_, err = service.VerifyEmail(ctx, token)
	mustBeSentinel(t, err, ErrTokenInvalid)

	// Replay must not disturb the verified state.
	stored, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !stored.IsVerified {
		t.Fatalf("replay flipped the verified flag")
	}
}

func TestVerifyEmailBadToken(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.VerifyEmail(ctx, "")
	mustBeSentinel(t, err, ErrTokenInvalid)

	_, err = service.VerifyEmail(ctx, "definitely-not-issued")
	mustBeSentinel(t, err, ErrTokenInvalid)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token := mailToken(t, notifier.last(t).Body, "/verify-email/")

	store.patch(t, user.ID, func(a *Account) {
		a.VerificationExpires = time.Now().Add(-time.Second)
	})

	_, err = service.VerifyEmail(ctx, token)
	mustBeSentinel(t, err, ErrTokenInvalid)
}

func TestResendVerificationRotatesToken(t *testing.T) {
	service, _, notifier := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, validRegistration); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	firstToken := mailToken(t, notifier.last(t).Body, "/verify-email/")

	if err := service.ResendVerification(ctx, validRegistration.Email); err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	secondToken := mailToken(t, notifier.last(t).Body, "/verify-email/")
	if firstToken == secondToken {
		t.Fatalf("resend must issue a fresh token")
	}

	// The superseded token is dead; the rotated one verifies.
	_, err := service.VerifyEmail(ctx, firstToken)
	mustBeSentinel(t, err, ErrTokenInvalid)

	if _, err := service.VerifyEmail(ctx, secondToken); err != nil {
		t.Fatalf("VerifyEmail with rotated token failed: %v", err)
	}
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	service, _, notifier := newTestService(t)

	registerVerified(t, service, notifier, validRegistration)

	err := service.ResendVerification(context.Background(), validRegistration.Email)
	mustBeSentinel(t, err, ErrAlreadyVerified)
}

func TestResendVerificationUnknownEmail(t *testing.T) {
	service, _, _ := newTestService(t)

	err := service.ResendVerification(context.Background(), "ghost@example.com")
	mustBeSentinel(t, err, ErrAccountNotFound)
}
