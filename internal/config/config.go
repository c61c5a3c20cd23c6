package config

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the server.
type Config struct {
	Addr                 string
	DatabaseURL          string
	SessionSecret        []byte
	SessionTTL           time.Duration
	SessionPurgeInterval time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
	SMTP                 SMTP
}

// SMTP is optional; an empty Host disables outgoing mail.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Addr:                 strings.TrimSpace(os.Getenv("ADDR")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SessionTTL:           parseDuration(os.Getenv("SESSION_TTL"), 24*time.Hour),
		SessionPurgeInterval: parseDuration(os.Getenv("SESSION_PURGE_INTERVAL"), time.Hour),
		RateLimitRPS:         parseFloat(os.Getenv("RATE_LIMIT_RPS"), 10),
		RateLimitBurst:       parseInt(os.Getenv("RATE_LIMIT_BURST"), 20),
		SMTP: SMTP{
			Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Port:     parseInt(os.Getenv("SMTP_PORT"), 25),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   os.Getenv("SMTP_SENDER"),
		},
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "task_tracker.db"
	}

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = []byte(secret)
	} else {
		// Generated secrets work but invalidate all sessions on restart.
		cfg.SessionSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.SessionSecret); err != nil {
			return cfg, fmt.Errorf("generate session secret: %w", err)
		}
		log.Println("SESSION_SECRET not set, generated a random one; sessions will not survive a restart")
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}
