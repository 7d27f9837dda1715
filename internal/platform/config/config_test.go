package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/ems",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		PhaseSweepInterval: time.Hour,
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestValidateProductionRequiresJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "secret"
	cfg.RunSeed = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsShortSweepInterval(t *testing.T) {
	cfg := validConfig()
	cfg.PhaseSweepInterval = 10 * time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sub-minute sweep interval")
	}
}
