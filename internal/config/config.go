// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// SheetConfig configures the spreadsheet egress.
type SheetConfig struct {
	// SpreadsheetID identifies the target spreadsheet. Empty disables the
	// real writer (rows are logged instead), which keeps local dev runnable.
	SpreadsheetID string `koanf:"spreadsheet_id"`

	// SheetName is the tab rows are appended to.
	SheetName string `koanf:"sheet_name"`

	// CredentialsFile points at the service-account JSON key.
	CredentialsFile string `koanf:"credentials_file"`

	// TotalColumns is the fixed row width; rows are padded/truncated to it.
	TotalColumns int `koanf:"total_columns"`

	// Timezone used for the human-readable timestamp column.
	Timezone string `koanf:"timezone"`

	// RetryAttempts and RetryBackoffMS govern append/update retries.
	RetryAttempts  int `koanf:"retry_attempts"`
	RetryBackoffMS int `koanf:"retry_backoff_ms"`
}

// RedisConfig configures the click-id counter backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`

	// CounterKey holds the atomic click-id counter.
	CounterKey string `koanf:"counter_key"`

	// CounterStart seeds the counter so the first INCR yields CounterStart+1.
	CounterStart int64 `koanf:"counter_start"`
}

// CRMConfig configures the lead-form forwarder. Empty WebhookURL disables it.
type CRMConfig struct {
	WebhookURL     string `koanf:"webhook_url"`
	TimeoutMS      int    `koanf:"timeout_ms"`
	RetryAttempts  int    `koanf:"retry_attempts"`
	RetryBackoffMS int    `koanf:"retry_backoff_ms"`
}

// MessengerConfig holds the deep-link targets for click endpoints.
type MessengerConfig struct {
	TelegramBotUsername string `koanf:"telegram_bot_username"`
	WhatsAppNumber      string `koanf:"whatsapp_number"`
	WhatsAppPrefill     string `koanf:"whatsapp_prefill"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory lead event queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of sheet writer workers. Kept small by
	// default: the spreadsheet API is the single point of external contention.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RegistrySize bounds the pending-click registry.
	RegistrySize int `koanf:"registry_size"`

	// CORSOrigins lists allowed origins for browser-facing endpoints.
	CORSOrigins []string `koanf:"cors_origins"`

	// GeoIPDBPath points at a MaxMind city database. Empty disables GeoIP.
	GeoIPDBPath string `koanf:"geoip_db_path"`

	Sheet     SheetConfig     `koanf:"sheet"`
	Redis     RedisConfig     `koanf:"redis"`
	CRM       CRMConfig       `koanf:"crm"`
	Messenger MessengerConfig `koanf:"messenger"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":8080",
		QueueSize:    10_000,
		WorkerCount:  minInt(4, runtime.NumCPU()),
		DedupeSize:   50_000,
		RegistrySize: 10_000,
		Sheet: SheetConfig{
			SheetName:      "Leads",
			TotalColumns:   15,
			Timezone:       "Europe/Moscow",
			RetryAttempts:  3,
			RetryBackoffMS: 800,
		},
		Redis: RedisConfig{
			Addr:         "127.0.0.1:6379",
			CounterKey:   "click_id_counter",
			CounterStart: 999,
		},
		CRM: CRMConfig{
			TimeoutMS:      5000,
			RetryAttempts:  3,
			RetryBackoffMS: 800,
		},
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
