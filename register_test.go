package authflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmcadam/authflow/internal"
)

func TestRegisterSuccess(t *testing.T) {
	service, store, _ := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected a generated account ID")
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("email = %q, want %q", user.Email, "ann@example.com")
	}
	if user.IsVerified {
		t.Fatalf("new account must start unverified")
	}
	if user.Role != "" {
		t.Fatalf("registration summary must not expose a role, got %q", user.Role)
	}

	stored, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Role != RoleUser {
		t.Fatalf("stored role = %q, want %q", stored.Role, RoleUser)
	}
	if stored.PasswordHash == validRegistration.Password {
		t.Fatalf("password stored in plaintext")
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("password hash has unexpected format: %q", stored.PasswordHash)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	service, store, _ := newTestService(t)
	ctx := context.Background()

	in := validRegistration
	in.Email = "  ANN@Example.COM "
	user, err := service.Register(ctx, in)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("email = %q, want normalized form", user.Email)
	}
	if _, err := store.GetByEmail(ctx, "ann@example.com"); err != nil {
		t.Fatalf("lookup by normalized email failed: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, validRegistration); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	// Same address in a different case must still collide.
	in := validRegistration
	in.Email = "ANN@EXAMPLE.COM"
	_, err := service.Register(ctx, in)
	mustBeSentinel(t, err, ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	service, _, notifier := newTestService(t)

	_, err := service.Register(context.Background(), RegisterInput{
		FirstName: "A",
		LastName:  " ",
		Email:     "not-an-email",
		Password:  "weak",
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if len(verr.Fields) != 4 {
		t.Fatalf("got %d field errors, want 4: %v", len(verr.Fields), verr)
	}
	fields := make(map[string]string)
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	for _, field := range []string{"firstName", "lastName", "email", "password"} {
		if _, ok := fields[field]; !ok {
			t.Errorf("missing field error for %q", field)
		}
	}
	if notifier.count() != 0 {
		t.Fatalf("no mail should be sent for rejected input")
	}
}

func TestRegisterWeakPasswordVariants(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	for _, password := range []string{"Sh0r", "alllower1", "ALLUPPER1", "NoDigitsHere"} {
		in := validRegistration
		in.Password = password
		var verr *ValidationError
		if _, err := service.Register(ctx, in); !errors.As(err, &verr) {
			t.Errorf("password %q: error = %v, want *ValidationError", password, err)
		}
	}
}

func TestRegisterStoresTokenDigestNotToken(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token := mailToken(t, notifier.last(t).Body, "/verify-email/")
	stored, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.VerificationTokenHash == token {
		t.Fatalf("plaintext token persisted")
	}
	if stored.VerificationTokenHash != internal.HashActionToken(token) {
		t.Fatalf("stored digest does not match mailed token")
	}
	if !stored.VerificationExpires.After(stored.CreatedAt) {
		t.Fatalf("verification expiry must be in the future")
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	service, store, notifier := newTestService(t)
	ctx := context.Background()

	notifier.err = errors.New("smtp down")
	user, err := service.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("Register must not fail on mail delivery: %v", err)
	}
	if _, err := store.GetByID(ctx, user.ID); err != nil {
		t.Fatalf("account was not persisted: %v", err)
	}
}
