// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	AllowedOrigins string
	FrontendURL    string

	JWTSecret     string
	JWTExpiryDays int

	IdentifierSecret string
	OTPTTL           time.Duration
	OTPVerifiedTTL   time.Duration
	OTPMaxAttempts   int
	SessionSweep     time.Duration
	ChallengeRate    int
	AuthRate         int

	CodeRelayURL   string
	CodeRelayToken string

	LogLevel  string
	LogFormat string

	AdminEmail    string
	AdminPassword string
}

// IsDevelopment reports whether error details and demo codes may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              strings.ToLower(getEnv("APP_ENV", EnvProduction)),
		Port:             getEnv("PORT", "5000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		FrontendURL:      strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTExpiryDays:    getEnvInt("JWT_EXPIRY_DAYS", 30),
		IdentifierSecret: os.Getenv("IDENTIFIER_SECRET"),
		OTPTTL:           time.Duration(getEnvInt("OTP_TTL_MINUTES", 15)) * time.Minute,
		OTPVerifiedTTL:   time.Duration(getEnvInt("OTP_VERIFIED_TTL_MINUTES", 30)) * time.Minute,
		OTPMaxAttempts:   getEnvInt("OTP_MAX_ATTEMPTS", 5),
		SessionSweep:     time.Duration(getEnvInt("SESSION_SWEEP_MINUTES", 5)) * time.Minute,
		ChallengeRate:    getEnvInt("CHALLENGES_PER_MINUTE", 3),
		AuthRate:         getEnvInt("AUTH_REQUESTS_PER_MINUTE", 20),
		CodeRelayURL:     strings.TrimRight(os.Getenv("CODE_RELAY_URL"), "/"),
		CodeRelayToken:   os.Getenv("CODE_RELAY_TOKEN"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.JWTSecret = "dev-only-secret"
	}
	if cfg.IdentifierSecret == "" {
		// Falls back to the JWT secret so identifier hashes stay stable across restarts.
		cfg.IdentifierSecret = cfg.JWTSecret
	}

	return cfg, nil
}

// OriginList splits ALLOWED_ORIGINS into trimmed entries.
func (c *Config) OriginList() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
