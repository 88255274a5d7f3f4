package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
)

// Preference names used by the profile page.
const (
	PrefTheme      = "theme"
	PrefResultRows = "result_rows"
)

// SettingsService stores per-user named preferences in user_settings.
type SettingsService struct {
	DB *gorm.DB
}

func NewSettingsService(conn *gorm.DB) *SettingsService { return &SettingsService{DB: conn} }

// Get returns the stored value, or def when the preference is unset.
func (s *SettingsService) Get(userID uint, name, def string) string {
	var setting models.UserSetting
	err := s.DB.Where("user_id = ? AND preference_name = ?", userID, name).First(&setting).Error
	if err != nil {
		return def
	}
	return setting.PreferenceValue
}

// Set upserts one preference.
func (s *SettingsService) Set(userID uint, name, value string) error {
	var setting models.UserSetting
	err := s.DB.Where("user_id = ? AND preference_name = ?", userID, name).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.DB.Create(&models.UserSetting{
			UserID:          userID,
			PreferenceName:  name,
			PreferenceValue: value,
		}).Error
	}
	if err != nil {
		return err
	}
	return s.DB.Model(&setting).Update("preference_value", value).Error
}
