package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	GinMode            string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// Mock analysis behaviour
	AnalysisDelay            time.Duration
	SupersedePendingAnalysis bool
	AutoAnalyze              bool
	PreviewMaxWidth          int
	PreviewMaxPixels         int64
	WorkerCount              int

	// Visitor sessions
	SessionSecret      string
	SessionIdleTimeout time.Duration

	CORSAllowedOrigins []string
	LogLevel           string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads the configuration from the environment, after merging in a
// .env file from the working directory when one exists.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:                     getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                     getEnvOrDefault("PORT", "8080"),
		GinMode:                  getEnvOrDefault("GIN_MODE", "release"),
		RequestTimeout:           parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize:       parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		AnalysisDelay:            parseDurationOrDefault("ANALYSIS_DELAY", 2000*time.Millisecond),
		SupersedePendingAnalysis: parseBoolOrDefault("SUPERSEDE_PENDING_ANALYSIS", true),
		AutoAnalyze:              parseBoolOrDefault("AUTO_ANALYZE", true),
		PreviewMaxWidth:          int(parseIntOrDefault("PREVIEW_MAX_WIDTH", 1280)),
		PreviewMaxPixels:         parseIntOrDefault("PREVIEW_MAX_PIXELS", 40_000_000),
		WorkerCount:              int(parseIntOrDefault("WORKER_COUNT", 0)),
		SessionSecret:            os.Getenv("SESSION_SECRET"),
		SessionIdleTimeout:       parseDurationOrDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CORSAllowedOrigins:       parseListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:                 getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.SessionSecret == "" {
		// Sessions will not survive a restart, which matches the transient page state.
		cfg.SessionSecret = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that the defaults cannot guarantee.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.AnalysisDelay <= 0 || c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("durations must be > 0 (got request=%s, analysis=%s, session_idle=%s)",
			c.RequestTimeout, c.AnalysisDelay, c.SessionIdleTimeout)
	}
	if c.PreviewMaxWidth <= 0 {
		return fmt.Errorf("PREVIEW_MAX_WIDTH must be > 0 (got %d)", c.PreviewMaxWidth)
	}
	if c.PreviewMaxPixels <= 0 {
		return fmt.Errorf("PREVIEW_MAX_PIXELS must be > 0 (got %d)", c.PreviewMaxPixels)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("WORKER_COUNT must be >= 0 (got %d)", c.WorkerCount)
	}
	// An empty key signs cookies that anyone can forge.
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid GIN_MODE: %q", c.GinMode)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
