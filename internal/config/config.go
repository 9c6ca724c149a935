package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds all configuration for the coordinator process
type Config struct {
	// Persistence
	DataDir     string
	StorageType string // "sqlite" or "memory"
	DBPath      string

	// Jurisdiction properties and game catalog (YAML)
	JurisdictionFile string

	// Bank account backing the credit meter
	BankAccountID string

	// Logging
	LogLevel string

	// Outbound event queue capacity
	EventQueueSize int

	// Elasticsearch archive (optional)
	ElasticsearchURL         string
	ElasticsearchUsername    string
	ElasticsearchPassword    string
	ElasticsearchIndexPrefix string
	ArchiveInterval          time.Duration

	// Attendant relay (optional)
	AttendantToken     string
	AttendantChannelID string

	// Replay diagnostics HTTP surface (optional)
	DiagnosticsAddr string

	// Environment
	Environment string // "development" or "production"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Get working directory for resource paths
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dataDir := getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data"))

	queueSize, err := getIntWithDefault("EVENT_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	archiveInterval, err := getDurationWithDefault("ARCHIVE_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:                  dataDir,
		StorageType:              getEnvWithDefault("STORAGE_TYPE", StorageSQLite),
		DBPath:                   getEnvWithDefault("DB_PATH", filepath.Join(dataDir, "egmcore.db")),
		JurisdictionFile:         os.Getenv("JURISDICTION_FILE"),
		BankAccountID:            getEnvWithDefault("BANK_ACCOUNT_ID", "egm"),
		LogLevel:                 getEnvWithDefault("LOG_LEVEL", "info"),
		EventQueueSize:           queueSize,
		ElasticsearchURL:         os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUsername:    os.Getenv("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword:    os.Getenv("ELASTICSEARCH_PASSWORD"),
		ElasticsearchIndexPrefix: getEnvWithDefault("ELASTICSEARCH_INDEX_PREFIX", "egmcore"),
		ArchiveInterval:          archiveInterval,
		AttendantToken:           os.Getenv("ATTENDANT_DISCORD_TOKEN"),
		AttendantChannelID:       os.Getenv("ATTENDANT_CHANNEL_ID"),
		DiagnosticsAddr:          os.Getenv("DIAGNOSTICS_ADDR"),
		Environment:              getEnvWithDefault("ENVIRONMENT", "development"),
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if cfg.StorageType == StorageSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.JurisdictionFile == "" {
		return fmt.Errorf("JURISDICTION_FILE is required")
	}
	if c.StorageType != StorageSQLite && c.StorageType != StorageMemory {
		return fmt.Errorf("STORAGE_TYPE must be %q or %q, got %q", StorageSQLite, StorageMemory, c.StorageType)
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must be positive")
	}
	if (c.AttendantToken == "") != (c.AttendantChannelID == "") {
		return fmt.Errorf("ATTENDANT_DISCORD_TOKEN and ATTENDANT_CHANNEL_ID must be set together")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ArchiveEnabled reports whether completed rounds are shipped to Elasticsearch
func (c *Config) ArchiveEnabled() bool {
	return c.ElasticsearchURL != ""
}

// AttendantEnabled reports whether attendant notifications are relayed
func (c *Config) AttendantEnabled() bool {
	return c.AttendantToken != ""
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
