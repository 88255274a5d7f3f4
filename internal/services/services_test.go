package services

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
)

var testDBSeq atomic.Int64

// setupTestDB opens a fresh shared-cache in-memory database per test so
// tests can run in parallel without seeing each other's rows.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}
