package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	UploadDir   string
	ModelPath   string
	SamplePath  string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "users.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	cfg.ModelPath = getEnv("MODEL_PATH", "model/model.json")
	cfg.SamplePath = getEnv("SAMPLE_CSV", "static/test.csv")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
