// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application. It is read once at
// startup and must not be mutated afterwards.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Scanner settings
	SupportedExtensions []string
	SpecialFiles        []string
	IgnoreFolders       []string

	// LLM settings
	AnthropicAPIKey    string
	OpenAIAPIKey       string
	DefaultLLM         string
	DefaultModel       string
	DefaultMaxTokens   int
	DefaultTemperature float64
	ModelCatalog       []string
	LLMRequestTimeout  time.Duration
	SystemPreamble     string

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// DefaultSystemPreamble is prepended to the assembled codebase content in
// the per-request system message.
const DefaultSystemPreamble = "You are a helpful assistant analyzing a codebase. " +
	"Answer the user's questions based on the following files:\n"

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 180*time.Second),

		// Scanner
		SupportedExtensions: getListEnv("SUPPORTED_EXTENSIONS", []string{".py"}),
		SpecialFiles:        getListEnv("SPECIAL_FILES", []string{".env"}),
		IgnoreFolders: getListEnv("IGNORE_FOLDERS", []string{
			"venv", ".venv", "env", "__pycache__", ".git", "node_modules",
		}),

		// LLM
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:         getEnv("DEFAULT_LLM", "anthropic"),
		DefaultModel:       getEnv("DEFAULT_MODEL", "claude-3-5-sonnet-20241022"),
		DefaultMaxTokens:   getIntEnv("DEFAULT_MAX_TOKENS", 4096),
		DefaultTemperature: getFloatEnv("DEFAULT_TEMPERATURE", 1.0),
		ModelCatalog:       getListEnv("MODEL_CATALOG", nil),
		LLMRequestTimeout:  getDurationEnv("LLM_REQUEST_TIMEOUT", 120*time.Second),
		SystemPreamble:     getEnv("SYSTEM_PREAMBLE", DefaultSystemPreamble),

		// NATS (optional; turn events disabled when URL is empty)
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Credential returns the API key for the configured default provider.
func (c *Config) Credential() string {
	if c.DefaultLLM == "openai" {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
