package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv(EnvJWTSecret, "test-secret")
	t.Setenv(EnvLogLevel, "error")
	return FromEnv("config-test")
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := validConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
	if cfg.TaxRate != DefaultTaxRate {
		t.Errorf("TaxRate = %v, want %v", cfg.TaxRate, DefaultTaxRate)
	}
	if cfg.ReviewEditWindow != 30*24*time.Hour {
		t.Errorf("ReviewEditWindow = %v, want 30 days", cfg.ReviewEditWindow)
	}
	if cfg.ReviewReportThreshold != 5 {
		t.Errorf("ReviewReportThreshold = %d, want 5", cfg.ReviewReportThreshold)
	}
	if cfg.MongoTransactions {
		t.Errorf("MongoTransactions should default to false")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvTaxRate, "0.2")
	t.Setenv(EnvMongoTransactions, "true")
	t.Setenv(EnvRefundFullDays, "45")
	t.Setenv(EnvStatsCacheTTL, "5m")
	t.Setenv(EnvLedgerMaxRetries, "not-a-number")
	cfg := validConfig(t)

	if cfg.TaxRate != 0.2 {
		t.Errorf("TaxRate = %v, want 0.2", cfg.TaxRate)
	}
	if !cfg.MongoTransactions {
		t.Errorf("MongoTransactions should be true")
	}
	if cfg.RefundFullDays != 45 {
		t.Errorf("RefundFullDays = %d, want 45", cfg.RefundFullDays)
	}
	if cfg.StatsCacheTTL != 5*time.Minute {
		t.Errorf("StatsCacheTTL = %v, want 5m", cfg.StatsCacheTTL)
	}
	if cfg.LedgerMaxRetries != DefaultLedgerMaxRetries {
		t.Errorf("unparsable value should fall back to default, got %d", cfg.LedgerMaxRetries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Port = "99999" }, "Port must be between"},
		{"bad mongo uri", func(c *Config) { c.MongoURI = "postgres://localhost" }, "MongoURI must start"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWTSecret cannot be empty"},
		{"tax rate out of range", func(c *Config) { c.TaxRate = 1.5 }, "TaxRate must be between"},
		{"unsorted refund days", func(c *Config) { c.RefundPartialDays = 40 }, "refund tiers"},
		{"increasing refund percent", func(c *Config) { c.RefundMinimalPercent = 80 }, "refund percentages"},
		{"zero report threshold", func(c *Config) { c.ReviewReportThreshold = 0 }, "ReviewReportThreshold"},
		{"bad redis url", func(c *Config) { c.RedisURL = "localhost:6379" }, "RedisURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:hunter2@db:27017/tourbook")
	if strings.Contains(got, "hunter2") {
		t.Errorf("password not redacted: %s", got)
	}
	if !strings.Contains(got, "***:***@db:27017") {
		t.Errorf("unexpected redaction: %s", got)
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-5, 10},
		{25, 25},
		{DefaultPaginationLimit + 1, DefaultPaginationLimit},
	}
	for _, tt := range tests {
		if got := NormalizePaginationLimit(tt.in); got != tt.want {
			t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
