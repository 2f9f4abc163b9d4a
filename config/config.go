package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Substrate providers
const (
	SubstrateNone   = "none"
	SubstrateOpenAI = "openai"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Substrate     SubstrateConfig
	Policy        PolicyConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RequestTimeout bounds a single evaluation, substrate call included
	RequestTimeout     time.Duration
	MaxBodyBytes       int64
	CORSAllowedOrigins []string
}

// SubstrateConfig selects the reasoning substrate. Provider "none" keeps
// every decision deterministic.
type SubstrateConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	OrgID       string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// PolicyConfig holds the reservation policy thresholds
type PolicyConfig struct {
	MaxDuration time.Duration
	// File optionally replaces the built-in regulation catalog
	File string
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getPort(),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:     getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 45*time.Second),
			MaxBodyBytes:       int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 1<<20)),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Substrate: SubstrateConfig{
			Provider:    strings.ToLower(getEnv("SUBSTRATE_PROVIDER", SubstrateNone)),
			APIKey:      firstEnv("SUBSTRATE_API_KEY", "OPENAI_API_KEY", "API_KEY"),
			BaseURL:     firstEnv("SUBSTRATE_BASE_URL", "OPENAI_BASE_URL"),
			OrgID:       firstEnv("SUBSTRATE_ORG_ID", "OPENAI_ORG_ID"),
			Model:       getEnv("SUBSTRATE_MODEL", "gpt-4o-mini"),
			Timeout:     getEnvAsDuration("SUBSTRATE_TIMEOUT", 30*time.Second),
			Temperature: getEnvAsFloat("SUBSTRATE_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("SUBSTRATE_MAX_TOKENS", 400),
		},
		Policy: PolicyConfig{
			MaxDuration: getEnvAsDuration("POLICY_MAX_DURATION", 2*time.Hour),
			File:        getEnv("POLICY_FILE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body size must be positive")
	}

	switch c.Substrate.Provider {
	case SubstrateNone:
		if c.IsProduction() {
			return fmt.Errorf("a reasoning substrate must be configured in production")
		}
	case SubstrateOpenAI:
		if c.Substrate.APIKey == "" {
			return fmt.Errorf("substrate API key is required for provider %q", c.Substrate.Provider)
		}
		if c.Substrate.Model == "" {
			return fmt.Errorf("substrate model is required")
		}
		if c.Substrate.Timeout <= 0 {
			return fmt.Errorf("substrate timeout must be positive")
		}
		if c.Substrate.Temperature < 0 || c.Substrate.Temperature > 2 {
			return fmt.Errorf("substrate temperature %.2f is outside [0, 2]", c.Substrate.Temperature)
		}
		// the request deadline must leave room for the substrate's own timeout
		if c.Server.RequestTimeout > 0 && c.Server.RequestTimeout <= c.Substrate.Timeout {
			return fmt.Errorf("server request timeout %s must be longer than substrate timeout %s",
				c.Server.RequestTimeout, c.Substrate.Timeout)
		}
	default:
		return fmt.Errorf("unknown substrate provider %q", c.Substrate.Provider)
	}

	if c.Policy.MaxDuration <= 0 {
		return fmt.Errorf("policy max duration must be positive")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// SubstrateEnabled reports whether purposes are sent to a reasoning substrate
func (c *Config) SubstrateEnabled() bool {
	return c.Substrate.Provider != "" && c.Substrate.Provider != SubstrateNone
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty variable among keys
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping blank entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
