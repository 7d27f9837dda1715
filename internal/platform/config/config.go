package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	JWTSecret           string
	Environment         string
	SeedAdminEmail      string
	SeedAdminPassword   string
	RunMigrations       bool
	RunSeed             bool
	MaxBodyBytes        int64
	RateLimitPerMinute  int
	PhaseSweepInterval  time.Duration
	PortalBaseURL       string
	PortalAPIKey        string
	PortalTimeout       time.Duration
	PortalRetries       int
	SSOBaseURL          string
	SSOAPIKey           string
	SSOTimeout          time.Duration
	MaintenanceLockWait time.Duration
	MetricsEnabled      bool
}

func Load() Config {
	// Missing .env is fine; deployments set real process env vars.
	_ = godotenv.Load()

	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		Environment:         getEnv("APP_ENV", "development"),
		SeedAdminEmail:      getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:   getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:             getEnvBool("RUN_SEED", true),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		PhaseSweepInterval:  getEnvDuration("PHASE_SWEEP_INTERVAL", time.Hour),
		PortalBaseURL:       getEnv("PORTAL_BASE_URL", ""),
		PortalAPIKey:        getEnv("PORTAL_API_KEY", ""),
		PortalTimeout:       getEnvDuration("PORTAL_TIMEOUT", 30*time.Second),
		PortalRetries:       getEnvInt("PORTAL_RETRIES", 2),
		SSOBaseURL:          getEnv("SSO_BASE_URL", ""),
		SSOAPIKey:           getEnv("SSO_API_KEY", ""),
		SSOTimeout:          getEnvDuration("SSO_TIMEOUT", 10*time.Second),
		MaintenanceLockWait: getEnvDuration("MAINTENANCE_LOCK_WAIT", 5*time.Minute),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
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

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.PortalRetries < 0 {
		return fmt.Errorf("PORTAL_RETRIES must not be negative")
	}
	if c.PhaseSweepInterval < time.Minute {
		return fmt.Errorf("PHASE_SWEEP_INTERVAL must be at least one minute")
	}
	return nil
}
