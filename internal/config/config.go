// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/alertsvc and every internal package that needs a
// runtime-tunable default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every environment-sourced setting the service needs at
// startup, grouped by the subsystem each setting tunes.
type Config struct {
	// Transport (ingress)
	ServerURL  string
	ServerPort int

	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// SMTP
	SenderEmail   string
	EmailPassword string
	SMTPHost      string
	SMTPPort      int

	// Audit-copy recipients CC'd on every outgoing alert.
	LoggerEmails []string

	// Per-severity suppression windows.
	RedEmailTimeout    time.Duration
	OrangeEmailTimeout time.Duration
	YellowEmailTimeout time.Duration

	// Dwell periods before a warning-tier breach fires.
	YellowSustenancePeriod time.Duration
	OrangeSustenancePeriod time.Duration

	// Drain cadence.
	WarningBreachCheckInterval  time.Duration
	CriticalBreachCheckInterval time.Duration

	// Queue capacity.
	QueueCapacity int

	// Device-state eviction.
	StateCleanupInterval time.Duration
	StateMaxIdle         time.Duration

	// Retry scheduler.
	MaxEmailRetryAttempts int
	RetrySpacing          time.Duration
	RetryPollInterval     time.Duration

	// Test-mode override: short-circuits recipient resolution entirely.
	UseTestEmail       bool
	TestEmailRecipient string

	// Operator HTTP surface (internal/adminapi) — ambient, not part of the core.
	AdminHost              string
	AdminPort              int
	AdminCORSAllowOrigins  []string
	AdminRateLimitRequests int
	AdminRateLimitWindow   time.Duration
}

// Load reads configuration from environment variables, applying documented
// defaults, and fails loudly when a required key is absent.
func Load() (*Config, error) {
	serverURL := envOr("SERVER_URL", "")
	if serverURL == "" {
		return nil, fmt.Errorf("SERVER_URL must be set")
	}
	serverPort := envInt("SERVER_PORT", 0)
	if serverPort == 0 {
		return nil, fmt.Errorf("SERVER_PORT must be set")
	}

	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	senderEmail := envOr("SENDER_EMAIL", "")
	if senderEmail == "" {
		return nil, fmt.Errorf("SENDER_EMAIL must be set")
	}
	emailPassword := envOr("EMAIL_PASSWORD", "")
	if emailPassword == "" {
		return nil, fmt.Errorf("EMAIL_PASSWORD must be set")
	}

	return &Config{
		ServerURL:  serverURL,
		ServerPort: serverPort,

		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		SenderEmail:   senderEmail,
		EmailPassword: emailPassword,
		SMTPHost:      envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      envInt("SMTP_PORT", 587),

		LoggerEmails: envList("LOGGER_EMAILS", []string{senderEmail}),

		RedEmailTimeout:    time.Duration(envInt("RED_EMAIL_TIMEOUT_IN_SECONDS", 300)) * time.Second,
		OrangeEmailTimeout: time.Duration(envInt("ORANGE_EMAIL_TIMEOUT_IN_SECONDS", 1800)) * time.Second,
		YellowEmailTimeout: time.Duration(envInt("YELLOW_EMAIL_TIMEOUT_IN_SECONDS", 3600)) * time.Second,

		YellowSustenancePeriod: time.Duration(envInt("YELLOW_SUSTENANCE_PERIOD", 10)) * time.Second,
		OrangeSustenancePeriod: time.Duration(envInt("ORANGE_SUSTENANCE_PERIOD", 5)) * time.Second,

		WarningBreachCheckInterval:  time.Duration(envInt("WARNING_BREACH_CHECK_INTERVAL", 60)) * time.Second,
		CriticalBreachCheckInterval: time.Duration(envInt("CRITICAL_BREACH_CHECK_INTERVAL", 30)) * time.Second,

		QueueCapacity: envInt("QUEUE_CAPACITY", 100),

		StateCleanupInterval: time.Duration(envInt("STATE_CLEANUP_INTERVAL", 1800)) * time.Second,
		StateMaxIdle:         time.Duration(envInt("STATE_MAX_IDLE", 3600)) * time.Second,

		MaxEmailRetryAttempts: envInt("MAX_EMAIL_RETRY_ATTEMPTS", 3),
		RetrySpacing:          time.Duration(envInt("RETRY_SPACING_SECONDS", 30)) * time.Second,
		RetryPollInterval:     time.Duration(envInt("RETRY_POLL_INTERVAL_SECONDS", 5)) * time.Second,

		UseTestEmail:       envBool("USE_TEST_EMAIL", false),
		TestEmailRecipient: envOr("TEST_EMAIL_RECIPIENT", ""),

		AdminHost:   envOr("ADMIN_HOST", "0.0.0.0"),
		AdminPort:   envInt("ADMIN_PORT", 8000),
		AdminCORSAllowOrigins: envList("ADMIN_CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
		}),
		AdminRateLimitRequests: envInt("ADMIN_RATE_LIMIT_REQUESTS", 100),
		AdminRateLimitWindow:   time.Duration(envInt("ADMIN_RATE_LIMIT_WINDOW", 60)) * time.Second,
	}, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
