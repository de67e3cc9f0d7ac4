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
	// HTTP server
	Port string

	// Database
	SQLiteDBPath string

	// Optional YAML file with categories to seed on first start
	CategorySeedFile string

	// AMQP (receipt OCR job queue)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Cloud Vision credentials (file path or inline JSON)
	VisionCredentialsFile string
	VisionCredentialsJSON string

	// Receipt worker
	ReceiptPollInterval time.Duration
	ReceiptMaxImageKB   int

	// Projection response cache
	ProjectionCacheSize int
	ProjectionCacheTTL  time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/controlio.db"),

		CategorySeedFile: getEnv("CATEGORY_SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "controlio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "analyze_receipts"),

		VisionCredentialsFile: getEnv("VISION_CREDENTIALS_FILE", ""),
		VisionCredentialsJSON: getEnv("VISION_CREDENTIALS_JSON", ""),

		ReceiptPollInterval: getEnvDuration("RECEIPT_POLL_INTERVAL", 30*time.Second),
		ReceiptMaxImageKB:   getEnvInt("RECEIPT_MAX_IMAGE_KB", 4096),

		ProjectionCacheSize: getEnvInt("PROJECTION_CACHE_SIZE", 100),
		ProjectionCacheTTL:  getEnvDuration("PROJECTION_CACHE_TTL", 2*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if c.SQLiteDBPath != ":memory:" {
		if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.CategorySeedFile != "" {
		if _, err := os.Stat(c.CategorySeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category seed file does not exist: %s", c.CategorySeedFile))
		}
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

	if c.VisionCredentialsFile != "" {
		if _, err := os.Stat(c.VisionCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Vision credentials file does not exist: %s", c.VisionCredentialsFile))
		}
	}

	if c.ReceiptPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid receipt poll interval %v: must be at least 1 second", c.ReceiptPollInterval))
	}
	if c.ReceiptMaxImageKB < 1 || c.ReceiptMaxImageKB > 32768 {
		errors = append(errors, fmt.Sprintf("invalid receipt image limit %dKB: must be between 1 and 32768", c.ReceiptMaxImageKB))
	}

	if c.ProjectionCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid projection cache size %d: must be at least 1", c.ProjectionCacheSize))
	}
	if c.ProjectionCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid projection cache TTL %v: must be at least 1 second", c.ProjectionCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
