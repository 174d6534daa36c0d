package services

import (
	"errors"
	"testing"

	"github.com/diewo77/estate-listings/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// recordingMailer captures the last token handed to the mailer so tests can
// follow the confirmation and reset links.
type recordingMailer struct {
	confirmToken string
	resetToken   string
}

func (m *recordingMailer) SendConfirmation(name, email, token string) error {
	m.confirmToken = token
	return nil
}

func (m *recordingMailer) SendPasswordReset(name, email, token string) error {
	m.resetToken = token
	return nil
}

func TestRegisterConfirmLoginFlow(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	svc := NewIdentityService(db, mailer)

	u, err := svc.Register(RegisterInput{Name: "Ana", Email: "ana@test", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Confirmed {
		t.Fatal("new account must start unconfirmed")
	}
	if u.Password == "secret1" {
		t.Fatal("password must be stored hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret1")) != nil {
		t.Fatal("stored hash does not match the password")
	}
	if mailer.confirmToken == "" {
		t.Fatal("confirmation mail not sent")
	}

	// Unconfirmed accounts cannot log in.
	if _, err := svc.Authenticate("ana@test", "secret1"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}

	if err := svc.Confirm(mailer.confirmToken); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// The token is one-time.
	if err := svc.Confirm(mailer.confirmToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on reuse, got %v", err)
	}

	got, err := svc.Authenticate("ana@test", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong account: got %d want %d", got.ID, u.ID)
	}
	if _, err := svc.Authenticate("ana@test", "wrong"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("expected ErrBadPassword, got %v", err)
	}
	if _, err := svc.Authenticate("nobody@test", "secret1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewIdentityService(db, &recordingMailer{})

	if _, err := svc.Register(RegisterInput{Name: "A", Email: "dup@test", Password: "secret1"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(RegisterInput{Name: "B", Email: "dup@test", Password: "secret2"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	svc := NewIdentityService(db, mailer)

	u, _ := svc.Register(RegisterInput{Name: "Ana", Email: "ana@test", Password: "oldpass1"})
	svc.Confirm(mailer.confirmToken)

	if err := svc.StartPasswordReset("nobody@test"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.StartPasswordReset("ana@test"); err != nil {
		t.Fatalf("start reset: %v", err)
	}
	if mailer.resetToken == "" {
		t.Fatal("reset mail not sent")
	}
	if !svc.TokenValid(mailer.resetToken) {
		t.Fatal("fresh reset token must be valid")
	}

	if err := svc.ResetPassword(mailer.resetToken, "newpass1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if svc.TokenValid(mailer.resetToken) {
		t.Fatal("consumed token must be invalid")
	}
	var check models.User
	db.First(&check, u.ID)
	if check.Token != nil {
		t.Fatal("token must be cleared after reset")
	}

	if _, err := svc.Authenticate("ana@test", "oldpass1"); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := svc.Authenticate("ana@test", "newpass1"); err != nil {
		t.Fatalf("new password refused: %v", err)
	}
}

func TestTokenValidEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewIdentityService(db, &recordingMailer{})
	if svc.TokenValid("") {
		t.Fatal("empty token must be invalid")
	}
}
