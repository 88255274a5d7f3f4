package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
	"github.com/Pedrom2002/airline-satisfaction-webapp/validation"
)

const (
	// MaxFailedAttempts failed logins in a row lock the account.
	MaxFailedAttempts = 5
	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute
	// MinPasswordLen is the minimum accepted password length.
	MinPasswordLen = 8
)

// lockoutLayouts are the accepted encodings of locked_until. Values written
// through the admin editor may use the bare layout, legacy rows may carry
// anything; unparseable values are treated as expired, never as locked.
var lockoutLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

// AuthService implements the account state machine: registration, login
// with lockout, and password change. It is the only writer of
// failed_attempts and locked_until.
type AuthService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewAuthService(conn *gorm.DB) *AuthService {
	return &AuthService{DB: conn, Now: time.Now}
}

// Register validates the form and creates the account. The password is
// stored only as a bcrypt hash.
func (s *AuthService) Register(username, email, password, confirm string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	v := validation.Violations{}
	validation.Required("username", username, v)
	validation.Required("email", email, v)
	validation.Required("password", password, v)
	validation.Required("confirm", confirm, v)
	if _, ok := v["password"]; !ok {
		validation.MinLen("password", password, MinPasswordLen, v)
	}
	if _, ok := v["confirm"]; !ok {
		validation.Matching("confirm", password, confirm, v)
	}
	if _, ok := v["email"]; !ok {
		validation.Email("email", email, v)
	}
	if !v.Empty() {
		field, reason, _ := v.First("username", "email", "password", "confirm")
		return nil, &ValidationError{Field: field, Reason: reason}
	}

	if dup := s.duplicateField(username, email); dup != "" {
		return nil, &DuplicateUserError{Field: dup}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.Now().UTC(),
	}
	if err := s.DB.Create(&user).Error; err != nil {
		// A concurrent registration can still hit the unique index.
		if dup := duplicateFromError(err); dup != "" {
			return nil, &DuplicateUserError{Field: dup}
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) duplicateField(username, email string) string {
	var count int64
	if s.DB.Model(&models.User{}).Where("username = ?", username).Count(&count); count > 0 {
		return "username"
	}
	if s.DB.Model(&models.User{}).Where("email = ?", email).Count(&count); count > 0 {
		return "email"
	}
	return ""
}

func duplicateFromError(err error) string {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return ""
	}
	if strings.Contains(msg, "email") {
		return "email"
	}
	return "username"
}

// Login checks the lockout window, then the credential. A failed attempt
// increments the counter; the attempt that reaches MaxFailedAttempts opens
// a LockoutDuration window. Unknown usernames report the same error as bad
// passwords.
func (s *AuthService) Login(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.Now().UTC()
	if strings.TrimSpace(user.LockedUntil) != "" {
		until, ok := parseLockout(user.LockedUntil)
		if ok && now.Before(until) {
			return nil, &AccountLockedError{Until: until}
		}
		// Expired or corrupted lockout: heal the row before checking
		// the credential so the account can never stay locked forever.
		if err := s.clearLockout(&user); err != nil {
			return nil, err
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		if err := s.clearLockout(&user); err != nil {
			return nil, err
		}
		return &user, nil
	}

	attempts := user.FailedAttempts + 1
	locked := ""
	if attempts >= MaxFailedAttempts {
		locked = now.Add(LockoutDuration).Format(time.RFC3339)
	}
	if err := s.DB.Model(&user).Updates(map[string]any{
		"failed_attempts": attempts,
		"locked_until":    locked,
	}).Error; err != nil {
		return nil, err
	}
	return nil, ErrInvalidCredentials
}

func (s *AuthService) clearLockout(user *models.User) error {
	if user.FailedAttempts == 0 && user.LockedUntil == "" {
		return nil
	}
	err := s.DB.Model(user).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    "",
	}).Error
	if err == nil {
		user.FailedAttempts = 0
		user.LockedUntil = ""
	}
	return err
}

func parseLockout(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range lockoutLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ChangePassword replaces the stored hash after verifying the current
// password. The caller's session is untouched.
func (s *AuthService) ChangePassword(userID uint, current, newPass, confirm string) error {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	v := validation.Violations{}
	validation.MinLen("password", newPass, MinPasswordLen, v)
	validation.Matching("confirm", newPass, confirm, v)
	if !v.Empty() {
		field, reason, _ := v.First("password", "confirm")
		return &ValidationError{Field: field, Reason: reason}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.DB.Model(&user).Update("password_hash", string(hash)).Error
}

// LoadUser fetches a user by id for session resolution.
func (s *AuthService) LoadUser(userID uint) (*models.User, bool) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return nil, false
	}
	return &user, true
}
