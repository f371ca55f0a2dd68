// Package config provides centralized configuration management for the
// SyntaxVerse backend. It loads configuration from CLI flags, an optional
// .env file, and environment variables, validates required fields, and
// provides sensible defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sshadulla22/SyntaxVerse-Backend/internal/ratelimit"
)

// DevSecretKey is the signing key used when SECRET_KEY is unset. Fine for
// local development, unacceptable in production.
const DevSecretKey = "your-very-secret-key-change-this-in-production"

// Config holds all application configuration.
type Config struct {
	// Server settings
	AppName    string
	ListenAddr string
	BaseURL    string
	Debug      bool

	// Database
	DatabasePath string // SQLite file path
	DatabaseKey  string // optional SQLCipher key; empty means unencrypted

	// Security
	SecretKey      string        // JWT signing key
	AccessTokenTTL time.Duration // access token lifetime

	// CORS: comma-separated origins, or "*"
	AllowedOrigins string

	// Rate limiting
	RateLimitConfig ratelimit.Config

	// Code execution proxy
	PistonURL string
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses CLI flags and returns them. Call before LoadConfig.
// This registers and parses --addr and --env-file.
func ParseFlags() (addr, envFile string) {
	flag.StringVar(&addr, "addr", "", "Listen address (default :8000, overrides LISTEN_ADDR env var)")
	flag.StringVar(&envFile, "env-file", ".env", "Path to .env file (ignored if missing)")
	flag.Parse()
	return addr, envFile
}

// LoadConfig loads configuration from the env file and environment
// variables. The addr flag overrides the LISTEN_ADDR env var if non-empty.
// A missing env file is not an error; real environment variables win over
// file values either way.
func LoadConfig(addr, envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}

	cfg.AppName = getEnvOrDefault("APP_NAME", "ANCText API")
	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", ":8000")
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BaseURL = strings.TrimSpace(os.Getenv("BASE_URL"))
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.ListenAddr
	}
	cfg.Debug = parseBoolOrDefault("DEBUG", false)

	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", "./notes.db")
	cfg.DatabaseKey = os.Getenv("DATABASE_KEY")

	cfg.SecretKey = getEnvOrDefault("SECRET_KEY", DevSecretKey)
	cfg.AccessTokenTTL = parseDurationOrDefault("ACCESS_TOKEN_TTL", 7*24*time.Hour)

	cfg.AllowedOrigins = getEnvOrDefault("ALLOWED_ORIGINS", "*")

	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", 10),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", 20),
		CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
	}

	cfg.PistonURL = getEnvOrDefault("PISTON_URL", "https://emkc.org/api/v2/piston/execute")

	return cfg, nil
}

// Validate checks the configuration for problems and returns them all at once.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH must not be empty")
	}
	if c.SecretKey == "" {
		errs = append(errs, "SECRET_KEY must not be empty")
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, "ACCESS_TOKEN_TTL must be positive")
	}
	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}
	if c.PistonURL == "" {
		errs = append(errs, "PISTON_URL must not be empty")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ParsedOrigins returns the allowed CORS origins as a slice. "*" yields a
// single wildcard entry.
func (c *Config) ParsedOrigins() []string {
	if c.AllowedOrigins == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// UsingDevSecret reports whether the server runs with the built-in
// development signing key.
func (c *Config) UsingDevSecret() bool {
	return c.SecretKey == DevSecretKey
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintf(os.Stderr, "%s starting...\n", c.AppName)

	if c.DatabaseKey != "" {
		fmt.Fprintf(os.Stderr, "  Database: %s (SQLCipher encrypted)\n", c.DatabasePath)
	} else {
		fmt.Fprintf(os.Stderr, "  Database: %s\n", c.DatabasePath)
	}
	if c.UsingDevSecret() {
		fmt.Fprintln(os.Stderr, "  Secret:   built-in dev key (set SECRET_KEY in production)")
	} else {
		fmt.Fprintln(os.Stderr, "  Secret:   from SECRET_KEY env var")
	}
	fmt.Fprintf(os.Stderr, "  Tokens:   expire after %s\n", c.AccessTokenTTL)
	fmt.Fprintf(os.Stderr, "  CORS:     %s\n", c.AllowedOrigins)
	fmt.Fprintf(os.Stderr, "  Listen:   %s\n", c.ListenAddr)
	fmt.Fprintf(os.Stderr, "  Base:     %s\n", c.BaseURL)
	fmt.Fprintln(os.Stderr, "")
}

// MustLoadConfig loads and validates configuration, exiting on error.
func MustLoadConfig(addr, envFile string) *Config {
	cfg, err := LoadConfig(addr, envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return cfg
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
