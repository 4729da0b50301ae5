// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int
	// ServerShutdownTimeout is the grace period for draining in-flight requests.
	ServerShutdownTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// DefaultKeyID is the identifier of the system-wide default master key.
	DefaultKeyID string
	// DefaultMasterKey is the default master key in "keyId:base64Key" form.
	// When KMSKeyURI is set the base64 portion is a KMS-wrapped ciphertext,
	// otherwise it is the raw 32-byte key. Empty means a random ephemeral
	// key is generated at startup (development only).
	DefaultMasterKey string

	// KMSProvider is the KMS provider protecting the default master key
	// (e.g., "gcpkms", "awskms", "azurekeyvault", "hashivault", "localsecrets").
	KMSProvider string
	// KMSKeyURI is the URI of the wrapping key in the KMS.
	KMSKeyURI string

	// SanitizerSalt keys the deterministic pseudonymization of user
	// identifiers inside sanitized payloads.
	SanitizerSalt string

	// KeyStoreMaxRetries is the number of extra attempts made when the key
	// store reports it is unavailable.
	KeyStoreMaxRetries int
	// KeyStoreRetryBaseDelay is the initial backoff delay between key store
	// retries; it doubles on every attempt.
	KeyStoreRetryBaseDelay time.Duration

	// RateLimitEnabled indicates whether per-IP rate limiting on key
	// management endpoints is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per IP.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for the per-IP rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost:            env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort:            env.GetInt("SERVER_PORT", 8080),
		ServerShutdownTimeout: env.GetDuration("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10, time.Second),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Default master key
		DefaultKeyID:     env.GetString("DEFAULT_KEY_ID", "default"),
		DefaultMasterKey: env.GetString("DEFAULT_MASTER_KEY", ""),

		// KMS configuration
		KMSProvider: env.GetString("KMS_PROVIDER", ""),
		KMSKeyURI:   env.GetString("KMS_KEY_URI", ""),

		// Payload sanitization
		SanitizerSalt: env.GetString("SANITIZER_SALT", "fitvault-sanitizer-v1"),

		// Key store retry policy
		KeyStoreMaxRetries:     env.GetInt("KEY_STORE_MAX_RETRIES", 3),
		KeyStoreRetryBaseDelay: env.GetDuration("KEY_STORE_RETRY_BASE_DELAY_MS", 50, time.Millisecond),

		// Rate Limiting (key management endpoints, IP-based)
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 5.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 10),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "fitvault"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
