package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DATA_BACKEND.
var Backends = []string{"memory", "file", "sqlite", "postgres"}

type Config struct {
	// HTTP server
	Port         string
	RateLimitRPM int

	// CIDRs whose X-Forwarded-For / X-Real-IP headers are believed,
	// on top of loopback and private networks
	TrustedProxies []string

	// Storage
	DataBackend  string
	DataFile     string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets archive mirror
	GoogleSpreadsheetID    string
	GoogleArchiveSheetName string

	// Spending tips
	TipServiceURL string
	TipTimeout    time.Duration
	TipCacheTTL   time.Duration

	// Budget behaviour
	UndoWindow                time.Duration
	RolloverCheckInterval     time.Duration
	RequireBalancedAllocation bool

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend:  getEnv("DATA_BACKEND", "file"),
		DataFile:     getEnv("DATA_FILE", "./data/anggaran.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/anggaran.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "anggaran"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "archive_sync"),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleArchiveSheetName: getEnv("GOOGLE_ARCHIVE_SHEET_NAME", "Archive"),

		TipServiceURL: getEnv("TIP_SERVICE_URL", ""),
		TipTimeout:    getEnvDuration("TIP_TIMEOUT", 5*time.Second),
		TipCacheTTL:   getEnvDuration("TIP_CACHE_TTL", 30*time.Minute),

		UndoWindow:                getEnvDuration("UNDO_WINDOW", 5*time.Second),
		RolloverCheckInterval:     getEnvDuration("ROLLOVER_CHECK_INTERVAL", time.Hour),
		RequireBalancedAllocation: getEnvBool("REQUIRE_BALANCED_ALLOCATION", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "file":
		if c.DataFile == "" {
			errors = append(errors, "data file path cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
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

	if c.TipServiceURL != "" {
		if u, err := url.Parse(c.TipServiceURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid tip service URL '%s': must be http or https", c.TipServiceURL))
		}
	}
	if c.TipTimeout <= 0 || c.TipTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid tip timeout %v: must be between 0 and 1 minute", c.TipTimeout))
	}
	if c.TipCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid tip cache TTL %v: must not be negative", c.TipCacheTTL))
	}

	if c.UndoWindow < time.Second || c.UndoWindow > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid undo window %v: must be between 1 second and 10 minutes", c.UndoWindow))
	}
	if c.RolloverCheckInterval < time.Minute || c.RolloverCheckInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rollover check interval %v: must be between 1 minute and 24 hours", c.RolloverCheckInterval))
	}
	if c.RateLimitRPM < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitRPM))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 10.0.0.0/8", cidr))
		}
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SheetsEnabled reports whether archives should be mirrored to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
