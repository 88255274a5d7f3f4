package services

import (
	"os"
	"path/filepath"
	"regexp"

	"gorm.io/gorm"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
)

// storedNamePattern matches the filenames the prediction pipeline writes.
// Anything else is refused so the download route can never be steered
// outside the upload dir.
var storedNamePattern = regexp.MustCompile(`^[0-9a-f]{32}_predictions\.csv$`)

// HistoryService lists a user's uploads and resolves processed CSVs for
// download.
type HistoryService struct {
	DB        *gorm.DB
	UploadDir string
}

func NewHistoryService(conn *gorm.DB, uploadDir string) *HistoryService {
	return &HistoryService{DB: conn, UploadDir: uploadDir}
}

// Uploads returns the user's uploads, newest first.
func (s *HistoryService) Uploads(userID uint) ([]models.Upload, error) {
	var uploads []models.Upload
	err := s.DB.Where("user_id = ?", userID).Order("upload_date DESC").Find(&uploads).Error
	return uploads, err
}

// ResolveDownload maps a stored filename to its path on disk. Unknown or
// malformed names fail with ErrNotFound.
func (s *HistoryService) ResolveDownload(filename string) (string, error) {
	if !storedNamePattern.MatchString(filename) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.UploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}
