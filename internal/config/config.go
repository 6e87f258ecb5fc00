// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Workspace WorkspaceConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level      string
	FilePath   string // Optional rotating log file
	MaxSizeMB  int
	MaxBackups int
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 7878)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins for the editor UI
}

// WorkspaceConfig holds workspace engine configuration.
type WorkspaceConfig struct {
	// DataPath is where the handle store database lives (default: ~/Inkwell/data).
	DataPath string
	// RootPath optionally selects a workspace folder at startup, replacing the stored one.
	RootPath string
	// PollInterval is the watch loop cadence (default: 3s).
	PollInterval time.Duration
	// Nudge enables fsnotify-triggered early checks for local folders (default: true).
	Nudge bool
	// SettleDelay debounces nudges (default: 250ms).
	SettleDelay time.Duration
	// MaxParallel bounds concurrent sibling traversal (default: 4, 1 = sequential).
	MaxParallel int
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Optional rotating log file path")

	serverPort := fs.String("port", "", "Server port (default: 7878)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS origins")

	dataPath := fs.String("data-path", "", "Path for the workspace handle database")
	rootPath := fs.String("workspace", "", "Workspace folder to open at startup")
	pollInterval := fs.String("poll-interval", "", "Watch loop interval (default: 3s)")
	nudge := fs.String("nudge", "", "Use fsnotify to trigger early checks (default: true)")
	maxParallel := fs.String("max-parallel", "", "Concurrent sibling traversal limit (default: 4)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:      getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			FilePath:   getConfigValue(*logFile, "LOG_FILE", ""),
			MaxSizeMB:  getIntConfigValue("", "LOG_MAX_SIZE_MB", 10),
			MaxBackups: getIntConfigValue("", "LOG_MAX_BACKUPS", 3),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "7878"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Workspace: WorkspaceConfig{
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
			RootPath:    getConfigValue(*rootPath, "WORKSPACE_PATH", ""),
			Nudge:       getBoolConfigValue(*nudge, "WORKSPACE_NUDGE", true),
			MaxParallel: getIntConfigValue(*maxParallel, "WORKSPACE_MAX_PARALLEL", 4),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Workspace.PollInterval, err = getDurationConfigValue(*pollInterval, "WORKSPACE_POLL_INTERVAL", "3s"); err != nil {
		return nil, err
	}
	if cfg.Workspace.SettleDelay, err = getDurationConfigValue("", "WORKSPACE_SETTLE_DELAY", "250ms"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Workspace.DataPath == "" {
		return errors.New("workspace data path cannot be empty after expansion")
	}

	if c.Workspace.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Workspace.PollInterval)
	}

	if c.Workspace.MaxParallel < 1 {
		return fmt.Errorf("max parallel must be at least 1, got %d", c.Workspace.MaxParallel)
	}

	// RootPath can be empty - the workspace is then chosen through the API.

	return nil
}

// HandleDBPath returns the badger directory for the handle store.
func (c *Config) HandleDBPath() string {
	return filepath.Join(c.Workspace.DataPath, "handles")
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Workspace.DataPath, err = expandPath(c.Workspace.DataPath, filepath.Join(homeDir, "Inkwell", "data")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Workspace.RootPath, err = expandPath(c.Workspace.RootPath, ""); err != nil {
		return fmt.Errorf("invalid workspace path: %w", err)
	}
	if c.Logger.FilePath, err = expandPath(c.Logger.FilePath, ""); err != nil {
		return fmt.Errorf("invalid log file path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as-is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
