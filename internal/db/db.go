// Package db opens the relational store and brings the schema up to date.
// SQLite is the default backend (DATABASE_DSN is a file path); a postgres://
// DSN selects the postgres driver. Schema management follows two paths:
// AutoMigrate for development, versioned SQL migrations via golang-migrate
// when MIGRATIONS=1.
package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the migrate database drivers and file source.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
)

// IsPostgresDSN reports whether the DSN selects the postgres driver.
func IsPostgresDSN(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// ConnectAndMigrate opens the store described by dsn and ensures the schema
// exists. Connection attempts are retried (postgres may still be starting).
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		if IsPostgresDSN(dsn) {
			conn, err = gorm.Open(postgres.Open(dsn), cfg)
		} else {
			conn, err = gorm.Open(sqlite.Open(dsn), cfg)
		}
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if migErr := conn.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	for _, table := range []string{"users", "uploads", "predictions", "logs", "user_settings"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}

	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(conn)
	}
	return conn, nil
}

// seed creates a development admin account when none exists.
func seed(conn *gorm.DB) {
	var count int64
	if err := conn.Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil || count > 0 {
		return
	}
	pass := os.Getenv("ADMIN_PASSWORD")
	if pass == "" {
		pass = "changeme123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	admin := models.User{
		Username:     "admin",
		Email:        "admin@localhost",
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
		IsAdmin:      true,
	}
	conn.Create(&admin)
}

// runSQLMigrations executes migrations in ./migrations using the file source.
func runSQLMigrations(dsn string) error {
	target := dsn
	if !IsPostgresDSN(dsn) {
		target = "sqlite3://" + dsn
	}
	m, err := migrate.New("file://migrations", target)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
