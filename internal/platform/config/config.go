package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	JWKSURL            string
	DataEncryptionKey  string
	Environment        string
	Timezone           string
	SeedAdminEmail     string
	SeedAdminPassword  string
	SeedAdminName      string
	AllowSelfSignup    bool
	EmailFrom          string
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPUseTLS         bool
	RunMigrations      bool
	RunSeed            bool
	MaxBodyBytes       int64
	LoginRatePerMinute int
	SessionTTL         time.Duration
	RoleLookupTimeout  time.Duration
	WarningSchedule    string
	MetricsEnabled     bool
}

func Load() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWKSURL:            getEnv("AUTH_JWKS_URL", ""),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:        getEnv("APP_ENV", "development"),
		Timezone:           getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedAdminName:      getEnv("SEED_ADMIN_NAME", "Administrator"),
		AllowSelfSignup:    getEnvBool("ALLOW_SELF_SIGNUP", true),
		EmailFrom:          getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:       getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:         getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		SessionTTL:         getEnvDuration("SESSION_TTL", 8*time.Hour),
		RoleLookupTimeout:  getEnvDuration("ROLE_LOOKUP_TIMEOUT", 3*time.Second),
		WarningSchedule:    getEnv("WARNING_SCHEDULE", "0 10 * * 1-5"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" && strings.TrimSpace(c.JWKSURL) == "" {
		return fmt.Errorf("JWT_SECRET or AUTH_JWKS_URL is required")
	}
	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.RunSeed && strings.TrimSpace(c.SeedAdminEmail) != "" && len(c.SeedAdminPassword) < 8 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.LoginRatePerMinute <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must be positive")
	}
	if c.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m")
	}
	if c.RoleLookupTimeout <= 0 {
		return fmt.Errorf("ROLE_LOOKUP_TIMEOUT must be positive")
	}
	if c.WarningSchedule != "" {
		if _, err := cron.ParseStandard(c.WarningSchedule); err != nil {
			return fmt.Errorf("WARNING_SCHEDULE is invalid: %w", err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
