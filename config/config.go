// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	AdminUsername string
	AdminPassword string

	// AnthropicAPIKey enables the automated generation flow. When empty the
	// operator copies the prompt into the chat service manually.
	AnthropicAPIKey string
	AnthropicModel  string

	// ProceduresSource is a Google Sheets URL, an http(s) CSV URL, or a local
	// .csv/.tsv/.xlsx path.
	ProceduresSource string

	FetchTimeoutSeconds int
	MatchTopN           int
	SessionTTLMinutes   int
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               getEnvWithDefault("ENV", "dev"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		AdminUsername: getEnvWithDefault("ADMIN_USERNAME", "admin@ginger.healthcare"),
		AdminPassword: getEnvWithDefault("ADMIN_PASSWORD", "changeme"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnvWithDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		ProceduresSource: os.Getenv("PROCEDURES_SOURCE"),

		FetchTimeoutSeconds: getIntEnvWithDefault("FETCH_TIMEOUT_SECONDS", 10),
		MatchTopN:           getIntEnvWithDefault("MATCH_TOP_N", 15),
		SessionTTLMinutes:   getIntEnvWithDefault("SESSION_TTL_MINUTES", 120),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateCredentials(cfg); err != nil {
		return err
	}

	if err := validateProceduresSource(cfg.ProceduresSource); err != nil {
		return fmt.Errorf("invalid PROCEDURES_SOURCE: %w", err)
	}

	if cfg.FetchTimeoutSeconds < 1 || cfg.FetchTimeoutSeconds > 120 {
		return fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: must be between 1 and 120, got: %d", cfg.FetchTimeoutSeconds)
	}

	if cfg.MatchTopN < 1 || cfg.MatchTopN > 100 {
		return fmt.Errorf("invalid MATCH_TOP_N: must be between 1 and 100, got: %d", cfg.MatchTopN)
	}

	if cfg.SessionTTLMinutes < 5 || cfg.SessionTTLMinutes > 1440 {
		return fmt.Errorf("invalid SESSION_TTL_MINUTES: must be between 5 and 1440, got: %d", cfg.SessionTTLMinutes)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateCredentials ensures the admin login pair is usable. The defaults
// are fine for dev but refused outside of it.
func validateCredentials(cfg *Config) error {
	if cfg.AdminUsername == "" {
		return fmt.Errorf("invalid ADMIN_USERNAME: cannot be empty")
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("invalid ADMIN_PASSWORD: cannot be empty")
	}

	env := strings.ToLower(cfg.Env)
	if (env == "prod" || env == "staging") && cfg.AdminPassword == "changeme" {
		return fmt.Errorf("invalid ADMIN_PASSWORD: default password is not allowed in %s", env)
	}

	return nil
}

// validateProceduresSource checks the catalogue source is either a well-formed
// http(s) URL or a path with a supported extension.
func validateProceduresSource(source string) error {
	if source == "" {
		return fmt.Errorf("PROCEDURES_SOURCE cannot be empty")
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		u, err := url.Parse(source)
		if err != nil {
			return fmt.Errorf("PROCEDURES_SOURCE must be a valid URL: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("PROCEDURES_SOURCE URL has no host: %s", source)
		}
		return nil
	}

	lower := strings.ToLower(source)
	for _, ext := range []string{".csv", ".tsv", ".xlsx"} {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}

	return fmt.Errorf("PROCEDURES_SOURCE must be a URL or a .csv/.tsv/.xlsx file, got: %s", source)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"ADMIN_USERNAME",
		"ADMIN_PASSWORD",
		"ANTHROPIC_API_KEY",
		"ANTHROPIC_MODEL",
		"PROCEDURES_SOURCE",
		"FETCH_TIMEOUT_SECONDS",
		"MATCH_TOP_N",
		"SESSION_TTL_MINUTES",
	}
}
