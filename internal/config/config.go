// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Snapshot persistence
	SnapshotBackend  string // localfile, sqlite or postgres
	SnapshotFilePath string
	SQLiteDBPath     string
	PostgresDSN      string

	// External feed
	FeedBackend string // memory, http or sheets
	FeedURL     string

	// Google Sheets feed
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Auth
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	AuthRatePerMinute int
	AuthRateBurst     int

	// Worker
	SyncSchedule string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		SnapshotBackend:  getEnv("SNAPSHOT_BACKEND", "localfile"),
		SnapshotFilePath: getEnv("SNAPSHOT_FILE_PATH", "./data/foyer.json"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/foyer.db"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),

		FeedBackend: getEnv("FEED_BACKEND", "memory"),
		FeedURL:     getEnv("FEED_URL", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "foyer"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_feed"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "foyer"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 10),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 5),

		SyncSchedule: getEnv("SYNC_SCHEDULE", "@every 1h"),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.SnapshotBackend {
	case "localfile":
		if c.SnapshotFilePath == "" {
			errors = append(errors, "snapshot file path cannot be empty when using localfile backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "Postgres DSN is required when using postgres backend")
		}
		if c.JWTSecret == "" {
			errors = append(errors, "JWT secret is required when using postgres backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid snapshot backend '%s': must be one of [localfile sqlite postgres]", c.SnapshotBackend))
	}

	switch c.FeedBackend {
	case "memory":
	case "http":
		if c.FeedURL == "" {
			errors = append(errors, "feed URL is required when using http feed backend")
		} else if parsed, err := url.Parse(c.FeedURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid feed URL '%s'", c.FeedURL))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets feed backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid feed backend '%s': must be one of [memory http sheets]", c.FeedBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.TokenTTL <= 0 {
		errors = append(errors, "token TTL must be positive")
	}
	if c.AuthRatePerMinute < 1 {
		errors = append(errors, "auth rate limit must be at least 1 per minute")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
