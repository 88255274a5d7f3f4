package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
)

// ActivityLog writes audit rows to the logs table. Recording is
// best-effort: a failed insert is logged and never surfaced to the caller.
type ActivityLog struct {
	DB *gorm.DB
}

func NewActivityLog(conn *gorm.DB) *ActivityLog { return &ActivityLog{DB: conn} }

// Record stores one action. userID 0 means anonymous.
func (a *ActivityLog) Record(userID uint, action, details string) {
	entry := models.Log{Action: action, Details: details, Timestamp: time.Now().UTC()}
	if userID != 0 {
		entry.UserID = &userID
	}
	if err := a.DB.Create(&entry).Error; err != nil {
		log.Printf("activity log %s: %v", action, err)
	}
}
