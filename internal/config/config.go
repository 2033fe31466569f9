package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	WMS         WMSConfig
	Sync        SyncConfig
	Queue       QueueConfig
	Admin       AdminConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type WMSConfig struct {
	BaseURL          string
	APIKey           string
	WebhookSecret    string
	CustomerID       string
	ShippingMethodID string
	RequestTimeout   time.Duration
}

type SyncConfig struct {
	// InitialSyncDone gates all automated exports: until the operator marks
	// the initial sync complete, historical orders are never exported.
	InitialSyncDone bool
	// ExportStatuses is the set of storefront statuses eligible for export.
	ExportStatuses []string
	// ReferencePrefix is prepended to the order number to build the external
	// reference sent to the WMS.
	ReferencePrefix string
	// DeliveryLeadDays is added to today for requested_delivery_date.
	DeliveryLeadDays int
	// SuspendStaleAfter bounds how long a persisted sync-in-progress marker
	// is honored. A crashed process can never wedge an order past this.
	SuspendStaleAfter time.Duration
}

// ExportableStatus reports whether the given storefront status is in the
// configured exportable set.
func (c SyncConfig) ExportableStatus(status string) bool {
	for _, s := range c.ExportStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

type QueueConfig struct {
	MaxAttempts        int
	BatchSize          int
	Interval           time.Duration
	WebhookBatchSize   int
	WebhookMaxAttempts int
	WebhookSweep       time.Duration
	LedgerRetention    time.Duration
	LedgerGCInterval   time.Duration
}

type AdminConfig struct {
	// APIKeyHash is the bcrypt hash the admin API key is verified against.
	APIKeyHash string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "wmsbridge"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		WMS: WMSConfig{
			BaseURL:          getEnvOrViper("WMS_BASE_URL", ""),
			APIKey:           getEnvOrViper("WMS_API_KEY", ""),
			WebhookSecret:    getEnvOrViper("WMS_WEBHOOK_SECRET", ""),
			CustomerID:       getEnvOrViper("WMS_CUSTOMER_ID", ""),
			ShippingMethodID: getEnvOrViper("WMS_SHIPPING_METHOD_ID", ""),
			RequestTimeout:   getDuration("WMS_REQUEST_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			InitialSyncDone:   getBool("SYNC_INITIAL_DONE", false),
			ExportStatuses:    splitList(getEnvOrViper("SYNC_EXPORT_STATUSES", "PROCESSING")),
			ReferencePrefix:   getEnvOrViper("SYNC_REFERENCE_PREFIX", "ORD-"),
			DeliveryLeadDays:  getInt("SYNC_DELIVERY_LEAD_DAYS", 1),
			SuspendStaleAfter: getDuration("SYNC_SUSPEND_STALE_AFTER", 5*time.Minute),
		},
		Queue: QueueConfig{
			MaxAttempts:        getInt("QUEUE_MAX_ATTEMPTS", 5),
			BatchSize:          getInt("QUEUE_BATCH_SIZE", 20),
			Interval:           getDuration("QUEUE_INTERVAL", time.Minute),
			WebhookBatchSize:   getInt("WEBHOOK_BATCH_SIZE", 50),
			WebhookMaxAttempts: getInt("WEBHOOK_MAX_ATTEMPTS", 5),
			WebhookSweep:       getDuration("WEBHOOK_SWEEP_INTERVAL", time.Minute),
			LedgerRetention:    getDuration("WEBHOOK_LEDGER_RETENTION", 30*24*time.Hour),
			LedgerGCInterval:   getDuration("WEBHOOK_LEDGER_GC_INTERVAL", 24*time.Hour),
		},
		Admin: AdminConfig{
			APIKeyHash: getEnvOrViper("ADMIN_API_KEY_HASH", ""),
		},
	}

	// Validate required fields
	if cfg.WMS.BaseURL == "" {
		return nil, fmt.Errorf("WMS_BASE_URL is required")
	}
	if cfg.WMS.APIKey == "" {
		return nil, fmt.Errorf("WMS_API_KEY is required")
	}
	if cfg.WMS.WebhookSecret == "" {
		return nil, fmt.Errorf("WMS_WEBHOOK_SECRET is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if getEnvOrViper(key, "") == "" {
		return defaultValue
	}
	return viper.GetInt(key)
}

func getBool(key string, defaultValue bool) bool {
	if getEnvOrViper(key, "") == "" {
		return defaultValue
	}
	return viper.GetBool(key)
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
