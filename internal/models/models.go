// Package models defines the persisted schema: users, uploads, predictions,
// logs and user_settings. Column names are pinned with gorm tags so the
// admin table registry and raw queries agree with the migrations.
package models

import "time"

// User is the account record. LockedUntil is stored as text (RFC3339 or
// empty) rather than a timestamp column: a corrupted value must be
// representable so the login path can treat it as expired instead of
// permanently locking the account.
type User struct {
	ID             uint      `gorm:"primaryKey;column:id"`
	Username       string    `gorm:"column:username;uniqueIndex;not null"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	FailedAttempts int       `gorm:"column:failed_attempts;default:0"`
	LockedUntil    string    `gorm:"column:locked_until"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	IsAdmin        bool      `gorm:"column:is_admin;default:false"`
}

func (User) TableName() string { return "users" }

// Upload records one submitted dataset. Filename is the stored name under
// the upload dir; OriginalFilename is what the client sent.
type Upload struct {
	ID               uint      `gorm:"primaryKey;column:id"`
	UserID           uint      `gorm:"column:user_id;not null;index"`
	Filename         string    `gorm:"column:filename;not null"`
	OriginalFilename string    `gorm:"column:original_filename;not null"`
	UploadDate       time.Time `gorm:"column:upload_date;autoCreateTime"`
	Processed        bool      `gorm:"column:processed;default:false"`
	NumRows          int       `gorm:"column:num_rows"`
}

func (Upload) TableName() string { return "uploads" }

// Prediction is one scored record within an upload.
type Prediction struct {
	ID          uint      `gorm:"primaryKey;column:id"`
	UploadID    uint      `gorm:"column:upload_id;not null;index"`
	PassengerID string    `gorm:"column:passenger_id"`
	Prediction  string    `gorm:"column:prediction"`
	Probability float64   `gorm:"column:probability"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Prediction) TableName() string { return "predictions" }

// Log is an activity audit row. UserID is zero for anonymous actions.
type Log struct {
	ID        uint      `gorm:"primaryKey;column:id"`
	UserID    *uint     `gorm:"column:user_id;index"`
	Action    string    `gorm:"column:action"`
	Details   string    `gorm:"column:details"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime"`
}

func (Log) TableName() string { return "logs" }

// UserSetting is a single named preference for a user.
type UserSetting struct {
	ID              uint   `gorm:"primaryKey;column:id"`
	UserID          uint   `gorm:"column:user_id;not null;index:idx_user_pref,unique"`
	PreferenceName  string `gorm:"column:preference_name;not null;index:idx_user_pref,unique"`
	PreferenceValue string `gorm:"column:preference_value"`
}

func (UserSetting) TableName() string { return "user_settings" }

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Upload{}, &Prediction{}, &Log{}, &UserSetting{}}
}
