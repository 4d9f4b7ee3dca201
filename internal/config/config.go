package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"groupledger/internal/core"
)

type Config struct {
	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// CSV export, used when no spreadsheet is configured
	ExportCSVPath string

	// Ledger
	Categories     []string
	IncomeCategory string

	// Export
	Timezone       string
	DateLayout     string
	PaidLabel      string
	UnpaidLabel    string
	ExportInterval time.Duration

	LogLevel string
}

var validBackends = []string{"memory", "sqlite", "mongo"}

func Load() *Config {
	return &Config{
		DataBackend: getEnv("DATA_BACKEND", "sqlite"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "ledger"),
		MongoCollection: getEnv("MONGO_COLLECTION", "expenses"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		ExportCSVPath:       getEnv("EXPORT_CSV_PATH", "./data/ledger.csv"),

		Categories:     getEnvList("LEDGER_CATEGORIES", categoryStrings(core.DefaultCanonicalOrder)),
		IncomeCategory: getEnv("LEDGER_INCOME_CATEGORY", string(core.DefaultIncomeCategory)),

		Timezone:       getEnv("LEDGER_TIMEZONE", "Local"),
		DateLayout:     getEnv("EXPORT_DATE_LAYOUT", core.DefaultDateLayout),
		PaidLabel:      getEnv("EXPORT_PAID_LABEL", "Paid"),
		UnpaidLabel:    getEnv("EXPORT_UNPAID_LABEL", "Unpaid"),
		ExportInterval: getEnvDuration("EXPORT_INTERVAL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "mongo" {
		if parsedURL, err := url.Parse(c.MongoURI); err != nil || c.MongoURI == "" {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI '%s'", c.MongoURI))
		} else if parsedURL.Scheme != "mongodb" && parsedURL.Scheme != "mongodb+srv" {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", parsedURL.Scheme))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "MongoDB database name cannot be empty when using mongo backend")
		}
		if c.MongoCollection == "" {
			errors = append(errors, "MongoDB collection name cannot be empty when using mongo backend")
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

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}

	if len(c.Categories) == 0 {
		errors = append(errors, "at least one category must be configured")
	}
	if strings.TrimSpace(c.IncomeCategory) == "" {
		errors = append(errors, "income category cannot be empty")
	} else if !contains(c.Categories, c.IncomeCategory) {
		errors = append(errors, fmt.Sprintf("income category '%s' must be one of the configured categories %v", c.IncomeCategory, c.Categories))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if c.DateLayout == "" {
		errors = append(errors, "export date layout cannot be empty")
	}
	if c.PaidLabel == "" || c.UnpaidLabel == "" {
		errors = append(errors, "export status labels cannot be empty")
	} else if c.PaidLabel == c.UnpaidLabel {
		errors = append(errors, "export paid and unpaid labels must differ")
	}

	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Ledger returns the core configuration: canonical order and income label.
func (c *Config) Ledger() core.Config {
	order := make(core.CanonicalOrder, 0, len(c.Categories))
	for _, name := range c.Categories {
		order = append(order, core.Category(name))
	}
	return core.Config{Canonical: order, Income: core.Category(c.IncomeCategory)}
}

// ExportOptions returns the export rendering options. Validate must have
// accepted the timezone.
func (c *Config) ExportOptions() core.ExportOptions {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc = time.Local
	}
	return core.ExportOptions{
		Location:    loc,
		DateLayout:  c.DateLayout,
		PaidLabel:   c.PaidLabel,
		UnpaidLabel: c.UnpaidLabel,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

// getEnvList splits a comma-separated value, trimming blanks and duplicates.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	seen := map[string]struct{}{}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func categoryStrings(order core.CanonicalOrder) []string {
	out := make([]string, len(order))
	for i, c := range order {
		out[i] = string(c)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
