package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(setupTestDB(t))
}

func mustRegister(t *testing.T, svc *AuthService, username, email, password string) *models.User {
	t.Helper()
	user, err := svc.Register(username, email, password, password)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name                                 string
		username, email, password, confirm   string
		wantField, wantReason                string
	}{
		{"empty username", "", "a@b.com", "password1", "password1", "username", "required"},
		{"empty email", "alice", "", "password1", "password1", "email", "required"},
		{"empty password", "alice", "a@b.com", "", "", "password", "required"},
		{"short password", "alice", "a@b.com", "short", "short", "password", "too_short"},
		{"mismatch", "alice", "a@b.com", "password1", "password2", "confirm", "mismatch"},
		{"bad email", "alice", "not-an-email", "password1", "password1", "email", "invalid_email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newAuthService(t)
			_, err := svc.Register(tc.username, tc.email, tc.password, tc.confirm)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if verr.Field != tc.wantField || verr.Reason != tc.wantReason {
				t.Fatalf("got %s.%s, want %s.%s", verr.Field, verr.Reason, tc.wantField, tc.wantReason)
			}
			var count int64
			svc.DB.Model(&models.User{}).Count(&count)
			if count != 0 {
				t.Fatalf("rejected registration created %d rows", count)
			}
		})
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := newAuthService(t)
	user := mustRegister(t, svc, "alice", "  Alice@Example.COM ", "password1")
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := newAuthService(t)
	mustRegister(t, svc, "alice", "alice@example.com", "password1")

	_, err := svc.Register("alice", "other@example.com", "password1", "password1")
	var dup *DuplicateUserError
	if !errors.As(err, &dup) || dup.Field != "username" {
		t.Fatalf("want username duplicate, got %v", err)
	}

	_, err = svc.Register("bob", "alice@example.com", "password1", "password1")
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("want email duplicate, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newAuthService(t)
	if _, err := svc.Login("nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginSuccessResetsCounters(t *testing.T) {
	svc := newAuthService(t)
	mustRegister(t, svc, "alice", "alice@example.com", "password1")

	for i := 0; i < 3; i++ {
		if _, err := svc.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: want ErrInvalidCredentials, got %v", i, err)
		}
	}
	user, err := svc.Login("alice", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.FailedAttempts != 0 || user.LockedUntil != "" {
		t.Fatalf("counters not reset: attempts=%d locked=%q", user.FailedAttempts, user.LockedUntil)
	}
}

func TestLockoutAfterMaxFailures(t *testing.T) {
	svc := newAuthService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }
	mustRegister(t, svc, "alice", "alice@example.com", "password1")

	for i := 0; i < MaxFailedAttempts; i++ {
		if _, err := svc.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: want ErrInvalidCredentials, got %v", i, err)
		}
	}

	// Even the correct password is refused inside the window.
	_, err := svc.Login("alice", "password1")
	var locked *AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("want AccountLockedError, got %v", err)
	}
	want := now.Add(LockoutDuration)
	if !locked.Until.Equal(want) {
		t.Fatalf("locked until %v, want %v", locked.Until, want)
	}

	// A locked-out attempt must not move the counters.
	var user models.User
	svc.DB.Where("username = ?", "alice").First(&user)
	if user.FailedAttempts != MaxFailedAttempts {
		t.Fatalf("counter moved while locked: %d", user.FailedAttempts)
	}
}

func TestLockoutExpires(t *testing.T) {
	svc := newAuthService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }
	mustRegister(t, svc, "alice", "alice@example.com", "password1")

	for i := 0; i < MaxFailedAttempts; i++ {
		svc.Login("alice", "wrong")
	}
	now = now.Add(LockoutDuration + time.Minute)

	user, err := svc.Login("alice", "password1")
	if err != nil {
		t.Fatalf("login after window: %v", err)
	}
	if user.FailedAttempts != 0 || user.LockedUntil != "" {
		t.Fatalf("lockout not cleared: attempts=%d locked=%q", user.FailedAttempts, user.LockedUntil)
	}
}

func TestCorruptedLockoutTreatedAsExpired(t *testing.T) {
	svc := newAuthService(t)
	mustRegister(t, svc, "alice", "alice@example.com", "password1")
	svc.DB.Model(&models.User{}).Where("username = ?", "alice").
		Updates(map[string]any{"failed_attempts": 3, "locked_until": "not-a-timestamp"})

	user, err := svc.Login("alice", "password1")
	if err != nil {
		t.Fatalf("login with corrupted lockout: %v", err)
	}
	if user.FailedAttempts != 0 || user.LockedUntil != "" {
		t.Fatalf("corrupted lockout not healed: attempts=%d locked=%q", user.FailedAttempts, user.LockedUntil)
	}
}

func TestLegacyLockoutLayoutStillLocks(t *testing.T) {
	svc := newAuthService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }
	mustRegister(t, svc, "alice", "alice@example.com", "password1")
	until := now.Add(5 * time.Minute).Format("2006-01-02T15:04:05")
	svc.DB.Model(&models.User{}).Where("username = ?", "alice").
		Update("locked_until", until)

	_, err := svc.Login("alice", "password1")
	var locked *AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("want AccountLockedError for legacy layout, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newAuthService(t)
	user := mustRegister(t, svc, "alice", "alice@example.com", "password1")

	if err := svc.ChangePassword(user.ID, "wrong", "newpassword", "newpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current password: got %v", err)
	}

	err := svc.ChangePassword(user.ID, "password1", "short", "short")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "password" || verr.Reason != "too_short" {
		t.Fatalf("short new password: got %v", err)
	}

	err = svc.ChangePassword(user.ID, "password1", "newpassword", "different")
	if !errors.As(err, &verr) || verr.Field != "confirm" || verr.Reason != "mismatch" {
		t.Fatalf("mismatched confirm: got %v", err)
	}

	if err := svc.ChangePassword(user.ID, "password1", "newpassword", "newpassword"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login("alice", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := svc.Login("alice", "newpassword"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestLoadUser(t *testing.T) {
	svc := newAuthService(t)
	user := mustRegister(t, svc, "alice", "alice@example.com", "password1")

	got, ok := svc.LoadUser(user.ID)
	if !ok || got.Username != "alice" {
		t.Fatalf("LoadUser: ok=%v user=%+v", ok, got)
	}
	if _, ok := svc.LoadUser(9999); ok {
		t.Fatal("LoadUser found a nonexistent user")
	}
}
