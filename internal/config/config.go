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
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Media     MediaConfig
	Catalog   CatalogConfig
	Transport TransportConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk state configuration.
type DataConfig struct {
	// BasePath is the root for the document store and the search index.
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes).
	// Loaded or generated at startup by auth.LoadOrGenerateKey.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration // e.g., 720h
}

// MediaConfig holds media host and object-store configuration.
type MediaConfig struct {
	// CurrentHost serves covers and resolved audio. Catalog writes always
	// derive URLs against this host.
	CurrentHost string
	// LegacyHost is the retired media host still present in old catalog
	// documents; read paths rewrite it to CurrentHost.
	LegacyHost string

	// Object store used to resolve storage:// references.
	ObjectStoreEndpoint  string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreUseSSL    bool
	PresignTTL           time.Duration // lifetime requested for presigned URLs (default: 24h)
}

// CatalogConfig holds catalog seeding configuration.
type CatalogConfig struct {
	SeedOnStart bool
	// SeedFile is an optional JSON file of catalog entries; when set it is
	// watched and re-applied on change.
	SeedFile string
}

// TransportConfig selects the media transport backend.
type TransportConfig struct {
	// Backend is "mpris" to drive a local MPRIS player over D-Bus, or "none"
	// to run without a transport (API still serves catalog and user data).
	Backend string
	// MPRISBusName is the well-known bus name of the player to control.
	MPRISBusName string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for server state")
	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 720h)")

	mediaHost := flag.String("media-host", "", "Current media host for cover and audio URLs")
	legacyMediaHost := flag.String("legacy-media-host", "", "Retired media host rewritten on catalog reads")
	objectStoreEndpoint := flag.String("object-store-endpoint", "", "S3-compatible endpoint for storage:// resolution")
	presignTTL := flag.String("presign-ttl", "", "Presigned URL lifetime (default: 24h)")

	seedOnStart := flag.String("seed-on-start", "", "Seed the built-in catalog when the catalog is empty (default: true)")
	seedFile := flag.String("seed-file", "", "Optional JSON catalog seed file, watched for changes")

	transportBackend := flag.String("transport", "", "Media transport backend: mpris or none (default: none)")
	mprisBusName := flag.String("mpris-bus-name", "", "D-Bus well-known name of the MPRIS player")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "Fable Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Media: MediaConfig{
			CurrentHost:          getConfigValue(*mediaHost, "MEDIA_HOST", "media.fablesound.app"),
			LegacyHost:           getConfigValue(*legacyMediaHost, "LEGACY_MEDIA_HOST", "fable-media.appspot.com"),
			ObjectStoreEndpoint:  getConfigValue(*objectStoreEndpoint, "OBJECT_STORE_ENDPOINT", ""),
			ObjectStoreAccessKey: getConfigValue("", "OBJECT_STORE_ACCESS_KEY", ""),
			ObjectStoreSecretKey: getConfigValue("", "OBJECT_STORE_SECRET_KEY", ""),
			ObjectStoreUseSSL:    getBoolConfigValue("", "OBJECT_STORE_USE_SSL", true),
		},
		Catalog: CatalogConfig{
			SeedOnStart: getBoolConfigValue(*seedOnStart, "SEED_ON_START", true),
			SeedFile:    getConfigValue(*seedFile, "SEED_FILE", ""),
		},
		Transport: TransportConfig{
			Backend:      getConfigValue(*transportBackend, "TRANSPORT", "none"),
			MPRISBusName: getConfigValue(*mprisBusName, "MPRIS_BUS_NAME", "org.mpris.MediaPlayer2.fable"),
		},
	}

	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "720h")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	presignTTLStr := getConfigValue(*presignTTL, "PRESIGN_TTL", "24h")
	presignDuration, err := time.ParseDuration(presignTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid presign TTL %q: %w", presignTTLStr, err)
	}
	cfg.Media.PresignTTL = presignDuration

	// Parse server timeouts.
	cfg.Server.ReadTimeout, err = parseTimeout(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.Server.WriteTimeout, err = parseTimeout(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.Server.IdleTimeout, err = parseTimeout(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
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

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Transport.Backend {
	case "mpris", "none":
	default:
		return fmt.Errorf("invalid transport backend: %s (must be mpris or none)", c.Transport.Backend)
	}

	if c.Media.CurrentHost == "" {
		return errors.New("media host cannot be empty")
	}

	return nil
}

// DocStorePath returns the directory for the document store.
func (c *Config) DocStorePath() string {
	return filepath.Join(c.Data.BasePath, "docstore")
}

// SearchIndexPath returns the directory for the search index.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.Data.BasePath, "search")
}

// KeyPath returns the file holding the PASETO symmetric key.
func (c *Config) KeyPath() string {
	return filepath.Join(c.Data.BasePath, "token.key")
}

// parseTimeout parses a duration from flag/env/default.
func parseTimeout(flagValue, envKey, defaultValue string) (time.Duration, error) {
	str := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, str, err)
	}
	return d, nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/Fable/data when unset.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Fable", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
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

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
