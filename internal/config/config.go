// Package config loads service configuration from the environment. A
// .env file in the working directory is folded in first, which keeps
// local development one `cp .env.example .env` away from running.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the explicit configuration object every component is wired
// from. Nothing else in the service reads the environment directly.
type Config struct {
	HTTPAddr string
	PGDSN    string

	JWTSecret  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	ShutdownTimeout time.Duration
}

// Load reads the environment, applying defaults for everything except
// the signing secret, which has no safe default.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        envStr("USERHUB_HTTP_ADDR", ":8080"),
		PGDSN:           os.Getenv("USERHUB_PG_DSN"),
		JWTSecret:       os.Getenv("USERHUB_JWT_SECRET"),
		Issuer:          envStr("USERHUB_ISSUER", "userhub"),
		ShutdownTimeout: 10 * time.Second,
	}

	var err error
	if cfg.AccessTTL, err = envDuration("USERHUB_ACCESS_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = envDuration("USERHUB_REFRESH_TTL", 14*24*time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: USERHUB_JWT_SECRET is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return Config{}, fmt.Errorf("config: token lifetimes must be positive")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return Config{}, fmt.Errorf("config: refresh lifetime must exceed access lifetime")
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
