package config

import (
	"os"
	"strconv"

	"go.uber.org/zap"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	MediaRoot   string

	// Notifier selects how dossier-creation notifications are delivered:
	// "smtp" or "log".
	Notifier string
	SMTPHost string
	SMTPPort string
	SMTPFrom string
	SMTPPass string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "atmp.db"),
		Env:         getEnv("APP_ENV", "development"),
		MediaRoot:   getEnv("MEDIA_ROOT", "media"),
		Notifier:    getEnv("NOTIFIER", "log"),
		SMTPHost:    getEnv("SMTP_HOST", ""),
		SMTPPort:    getEnv("SMTP_PORT", "587"),
		SMTPFrom:    getEnv("SMTP_FROM", ""),
		SMTPPass:    getEnv("SMTP_PASSWORD", ""),
	}
}

// NewLogger builds the process logger: development encoding outside
// production, JSON in production.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
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
			return def
		}
		return b
	}
	return def
}
