package services

import (
	"errors"
	"log"

	"github.com/diewo77/estate-listings/internal/mail"
	"github.com/diewo77/estate-listings/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput carries the registration form fields in typed form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// IdentityService persists user accounts and their one-time tokens. A single
// token field serves both account confirmation and password reset; it always
// represents the one outstanding action and is cleared when consumed.
type IdentityService struct {
	DB     *gorm.DB
	Mailer mail.Mailer
}

func NewIdentityService(db *gorm.DB, mailer mail.Mailer) *IdentityService {
	return &IdentityService{DB: db, Mailer: mailer}
}

// Register creates an unconfirmed account and emails the confirmation link.
// The unique index on email is the duplicate guard: racing registrations can
// both pass any pre-check, so the constraint violation is mapped instead.
func (s *IdentityService) Register(in RegisterInput) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	u := models.User{Name: in.Name, Email: in.Email, Password: string(hash), Token: &token}
	if err := s.DB.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if err := s.Mailer.SendConfirmation(u.Name, u.Email, token); err != nil {
		log.Printf("confirmation mail to %s failed: %v", u.Email, err)
	}
	return &u, nil
}

// Confirm consumes a confirmation token: the account becomes able to log in
// and the token is cleared.
func (s *IdentityService) Confirm(token string) error {
	u, err := s.byToken(token)
	if err != nil {
		return err
	}
	u.Confirmed = true
	u.Token = nil
	return s.DB.Save(u).Error
}

// Authenticate checks credentials and returns the account. Each failure mode
// is a distinct error so the login form can say what went wrong.
func (s *IdentityService) Authenticate(email, password string) (*models.User, error) {
	var u models.User
	if err := s.DB.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !u.Confirmed {
		return nil, ErrNotConfirmed
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrBadPassword
	}
	return &u, nil
}

// StartPasswordReset issues a fresh token and emails the reset link. A new
// token replaces any outstanding one.
func (s *IdentityService) StartPasswordReset(email string) error {
	var u models.User
	if err := s.DB.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	token := uuid.NewString()
	u.Token = &token
	if err := s.DB.Save(&u).Error; err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(u.Name, u.Email, token); err != nil {
		log.Printf("reset mail to %s failed: %v", u.Email, err)
	}
	return nil
}

// TokenValid reports whether a reset token refers to an account, for the
// reset form page.
func (s *IdentityService) TokenValid(token string) bool {
	_, err := s.byToken(token)
	return err == nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *IdentityService) ResetPassword(token, newPassword string) error {
	u, err := s.byToken(token)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	u.Token = nil
	return s.DB.Save(u).Error
}

func (s *IdentityService) byToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	var u models.User
	if err := s.DB.Where("token = ?", token).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &u, nil
}
