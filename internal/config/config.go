package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// BackendBaseURL is the REST API every route relays to.
	BackendBaseURL string
	// BackendTimeout bounds each upstream call so a dead backend surfaces
	// as a 502 instead of a hung handler.
	BackendTimeout time.Duration

	// CookieSecret seeds the sealing key. It has no default on purpose:
	// sealing fails closed when it is absent or too short.
	CookieSecret string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
		BackendTimeout: time.Duration(getEnvInt("BACKEND_TIMEOUT_SECONDS", 10)) * time.Second,
		CookieSecret:   os.Getenv("COOKIE_SECRET"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
