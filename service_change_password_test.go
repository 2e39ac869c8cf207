package credgate

import (
	"context"
	"errors"
	"testing"
)

func TestChangePasswordSuccess(t *testing.T) {
	store := newMockStore()
	service := newTestService(t, store, newTestClock(), nil, nil)
	ctx := context.Background()

	account := registerTestAccount(t, service, "alice", "alice@example.com", "old-password")

	result, err := service.ChangePassword(ctx, account.ID, "old-password", "new-password")
	if err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
	if result.Session.Token == "" {
		t.Fatal("expected a fresh session after password change")
	}

	if _, err := service.Login(ctx, "alice@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to stop working, got %v", err)
	}
	if _, err := service.Login(ctx, "alice@example.com", "new-password"); err != nil {
		t.Fatalf("expected new password to work, got %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	store := newMockStore()
	service := newTestService(t, store, newTestClock(), nil, nil)

	account := registerTestAccount(t, service, "alice", "alice@example.com", "old-password")

	_, err := service.ChangePassword(context.Background(), account.ID, "wrong-password", "new-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// A wrong current password on an authenticated flow must not feed the
	// lockout counter.
	stored, _ := store.get(account.ID)
	if stored.LoginAttempts != 0 {
		t.Fatalf("expected untouched lockout counter, got %d", stored.LoginAttempts)
	}
}

func TestChangePasswordReuseRejected(t *testing.T) {
	service := newTestService(t, newMockStore(), newTestClock(), nil, nil)

	account := registerTestAccount(t, service, "alice", "alice@example.com", "same-password")

	_, err := service.ChangePassword(context.Background(), account.ID, "same-password", "same-password")
	if !errors.Is(err, ErrPasswordReuse) {
		t.Fatalf("expected ErrPasswordReuse, got %v", err)
	}
}

func TestChangePasswordPolicy(t *testing.T) {
	service := newTestService(t, newMockStore(), newTestClock(), nil, nil)

	account := registerTestAccount(t, service, "alice", "alice@example.com", "old-password")

	_, err := service.ChangePassword(context.Background(), account.ID, "old-password", "short")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "password" {
		t.Fatalf("expected ValidationError{password}, got %v", err)
	}
}

func TestChangePasswordUnknownAccount(t *testing.T) {
	service := newTestService(t, newMockStore(), newTestClock(), nil, nil)

	_, err := service.ChangePassword(context.Background(), "ghost", "old", "new-password")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
