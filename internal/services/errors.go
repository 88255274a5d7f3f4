package services

import (
	"errors"
	"fmt"
	"time"
)

// Failure taxonomy shared by the auth and admin services. Handlers translate
// these into flash messages or status codes; raw store errors never cross
// the service boundary.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbiddenTable     = errors.New("table not allowed")
	ErrNotFound           = errors.New("record not found")
)

// ValidationError marks user-correctable input. Field names the offending
// form field, Reason is a message key from the validation package.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateUserError reports a unique-constraint collision on registration,
// identifying which field collided.
type DuplicateUserError struct {
	Field string // "username" or "email"
}

func (e *DuplicateUserError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

// AccountLockedError rejects a login while the lockout window is open.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}
