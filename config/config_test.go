package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"ENVIRONMENT", "SERVER_HOST", "PORT", "SERVER_PORT",
	"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
	"SERVER_REQUEST_TIMEOUT", "SERVER_MAX_BODY_BYTES", "CORS_ALLOWED_ORIGINS",
	"SUBSTRATE_PROVIDER", "SUBSTRATE_API_KEY", "OPENAI_API_KEY", "API_KEY",
	"SUBSTRATE_BASE_URL", "OPENAI_BASE_URL", "SUBSTRATE_ORG_ID", "OPENAI_ORG_ID", "SUBSTRATE_MODEL", "SUBSTRATE_TIMEOUT",
	"SUBSTRATE_TEMPERATURE", "SUBSTRATE_MAX_TOKENS",
	"POLICY_MAX_DURATION", "POLICY_FILE",
	"LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED",
}

// clearEnv blanks every variable New reads; blank counts as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
				assert.Equal(t, SubstrateNone, cfg.Substrate.Provider)
				assert.False(t, cfg.SubstrateEnabled())
				assert.Equal(t, "gpt-4o-mini", cfg.Substrate.Model)
				assert.Equal(t, 30*time.Second, cfg.Substrate.Timeout)
				assert.Equal(t, 0.1, cfg.Substrate.Temperature)
				assert.Equal(t, 2*time.Hour, cfg.Policy.MaxDuration)
				assert.Empty(t, cfg.Policy.File)
				assert.Equal(t, "info", cfg.Observability.LogLevel)
				assert.Equal(t, "json", cfg.Observability.LogFormat)
				assert.True(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name: "openai substrate",
			envVars: map[string]string{
				"SUBSTRATE_PROVIDER":    "OpenAI",
				"SUBSTRATE_API_KEY":     "sk-test",
				"SUBSTRATE_BASE_URL":    "http://localhost:11434/v1",
				"SUBSTRATE_ORG_ID":      "org-upb",
				"SUBSTRATE_MODEL":       "gpt-4o",
				"SUBSTRATE_TIMEOUT":     "5s",
				"SUBSTRATE_TEMPERATURE": "0",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, SubstrateOpenAI, cfg.Substrate.Provider)
				assert.True(t, cfg.SubstrateEnabled())
				assert.Equal(t, "sk-test", cfg.Substrate.APIKey)
				assert.Equal(t, "http://localhost:11434/v1", cfg.Substrate.BaseURL)
				assert.Equal(t, "org-upb", cfg.Substrate.OrgID)
				assert.Equal(t, "gpt-4o", cfg.Substrate.Model)
				assert.Equal(t, 5*time.Second, cfg.Substrate.Timeout)
				assert.Equal(t, 0.0, cfg.Substrate.Temperature)
			},
		},
		{
			name: "api key fallbacks",
			envVars: map[string]string{
				"SUBSTRATE_PROVIDER": "openai",
				"API_KEY":            "generic",
				"OPENAI_API_KEY":     "sk-openai",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-openai", cfg.Substrate.APIKey)
			},
		},
		{
			name: "production with substrate",
			envVars: map[string]string{
				"ENVIRONMENT":        "production",
				"SUBSTRATE_PROVIDER": "openai",
				"API_KEY":            "generic",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.Equal(t, "generic", cfg.Substrate.APIKey)
			},
		},
		{
			name: "policy and server overrides",
			envVars: map[string]string{
				"POLICY_MAX_DURATION":   "90m",
				"POLICY_FILE":           "/etc/reservations/catalog.yaml",
				"SERVER_READ_TIMEOUT":   "20s",
				"SERVER_MAX_BODY_BYTES": "2048",
				"CORS_ALLOWED_ORIGINS":  "https://a.example.edu, https://b.example.edu ,",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 90*time.Minute, cfg.Policy.MaxDuration)
				assert.Equal(t, "/etc/reservations/catalog.yaml", cfg.Policy.File)
				assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
				assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.Server.CORSAllowedOrigins)
			},
		},
		{
			name: "observability configuration",
			envVars: map[string]string{
				"LOG_LEVEL":       "debug",
				"LOG_FORMAT":      "text",
				"METRICS_ENABLED": "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "text", cfg.Observability.LogFormat)
				assert.False(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name:    "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{"PORT": "9443", "SERVER_PORT": "9000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name:    "SERVER_PORT env var when PORT not set",
			envVars: map[string]string{"SERVER_PORT": "9000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
			},
		},
		{
			name:    "production without substrate",
			envVars: map[string]string{"ENVIRONMENT": "production"},
			wantErr: true,
		},
		{
			name:    "openai without key",
			envVars: map[string]string{"SUBSTRATE_PROVIDER": "openai"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			envVars: map[string]string{"SUBSTRATE_PROVIDER": "bedrock"},
			wantErr: true,
		},
		{
			name: "request timeout shorter than substrate timeout",
			envVars: map[string]string{
				"SUBSTRATE_PROVIDER":     "openai",
				"SUBSTRATE_API_KEY":      "sk-test",
				"SERVER_REQUEST_TIMEOUT": "10s",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Port: 8080, MaxBodyBytes: 1 << 20},
		Substrate:   SubstrateConfig{Provider: SubstrateNone},
		Policy:      PolicyConfig{MaxDuration: 2 * time.Hour},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid development config",
			mutate: func(*Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
			errMsg:  "out of range",
		},
		{
			name:    "zero body limit",
			mutate:  func(c *Config) { c.Server.MaxBodyBytes = 0 },
			wantErr: true,
			errMsg:  "max body size",
		},
		{
			name:    "zero duration limit",
			mutate:  func(c *Config) { c.Policy.MaxDuration = 0 },
			wantErr: true,
			errMsg:  "max duration",
		},
		{
			name: "temperature out of range",
			mutate: func(c *Config) {
				c.Substrate = SubstrateConfig{Provider: SubstrateOpenAI, APIKey: "k", Model: "m", Timeout: time.Second, Temperature: 3}
			},
			wantErr: true,
			errMsg:  "temperature",
		},
		{
			name: "zero substrate timeout",
			mutate: func(c *Config) {
				c.Substrate = SubstrateConfig{Provider: SubstrateOpenAI, APIKey: "k", Model: "m"}
			},
			wantErr: true,
			errMsg:  "timeout",
		},
		{
			name: "request timeout equal to substrate timeout",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 30 * time.Second
				c.Substrate = SubstrateConfig{Provider: SubstrateOpenAI, APIKey: "k", Model: "m", Timeout: 30 * time.Second}
			},
			wantErr: true,
			errMsg:  "must be longer than substrate timeout",
		},
		{
			name: "request timeout longer than substrate timeout",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 45 * time.Second
				c.Substrate = SubstrateConfig{Provider: SubstrateOpenAI, APIKey: "k", Model: "m", Timeout: 30 * time.Second}
			},
		},
		{
			name: "request timeout ignored without substrate",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = time.Second
			},
		},
		{
			name:    "missing log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "" },
			wantErr: true,
			errMsg:  "log level is required",
		},
		{
			name:    "production requires substrate",
			mutate:  func(c *Config) { c.Environment = "prod" },
			wantErr: true,
			errMsg:  "must be configured in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Environment: "dev"}).IsDevelopment())
	assert.False(t, (&Config{Environment: "staging"}).IsDevelopment())
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
	}

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "30s", 10 * time.Second, 30 * time.Second},
		{"empty value", "", 10 * time.Second, 10 * time.Second},
		{"invalid duration", "not-a-duration", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", tt.defaultValue))
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	assert.Equal(t, 0.25, getEnvAsFloat("TEST_FLOAT", 1))

	t.Setenv("TEST_FLOAT", "warm")
	assert.Equal(t, 1.0, getEnvAsFloat("TEST_FLOAT", 1))
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsList("TEST_LIST", []string{"x"}))

	t.Setenv("TEST_LIST", "a,b")
	assert.Equal(t, []string{"a", "b"}, getEnvAsList("TEST_LIST", nil))
}
