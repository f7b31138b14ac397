package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/absensi",
		JWTSecret:          "test-secret",
		Environment:        "development",
		Timezone:           "Asia/Jakarta",
		MaxBodyBytes:       1048576,
		LoginRatePerMinute: 10,
		SessionTTL:         8 * time.Hour,
		RoleLookupTimeout:  time.Second,
		WarningSchedule:    "0 10 * * 1-5",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "no token verifier", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "jwks only", mutate: func(c *Config) { c.JWTSecret = ""; c.JWKSURL = "https://idp.example.com/jwks" }},
		{name: "short production secret", mutate: func(c *Config) { c.Environment = "production"; c.DataEncryptionKey = "k" }, wantErr: "at least 32"},
		{name: "bad schedule", mutate: func(c *Config) { c.WarningSchedule = "every day" }, wantErr: "WARNING_SCHEDULE"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "APP_TIMEZONE"},
		{name: "weak seed password", mutate: func(c *Config) { c.RunSeed = true; c.SeedAdminEmail = "a@b.c"; c.SeedAdminPassword = "short" }, wantErr: "SEED_ADMIN_PASSWORD"},
		{name: "email without host", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: "SMTP_HOST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "25")
	cfg := Load()
	if cfg.SessionTTL != 8*time.Hour {
		t.Fatalf("expected fallback session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.LoginRatePerMinute != 25 {
		t.Fatalf("expected login rate 25, got %d", cfg.LoginRatePerMinute)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
}
