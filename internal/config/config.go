package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Sheets    SheetsConfig    `koanf:"sheets"`
	Admin     AdminConfig     `koanf:"admin"`
	Session   SessionConfig   `koanf:"session"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Pricing   PricingConfig   `koanf:"pricing"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig selects the snapshot backend. Driver is one of memory,
// file, redis or sql.
type StorageConfig struct {
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	RedisURL  string `koanf:"redis_url"`
	SQLDriver string `koanf:"sql_driver"`
	SQLDSN    string `koanf:"sql_dsn"`
	KeyPrefix string `koanf:"key_prefix"`
}

// SheetsConfig points at the spreadsheet mirror. Leaving the API key or
// the sheet identifiers empty keeps the service local-only.
type SheetsConfig struct {
	BaseURL         string        `koanf:"base_url"`
	APIKey          string        `koanf:"api_key"`
	ProductsSheetID string        `koanf:"products_sheet_id"`
	ProductsRange   string        `koanf:"products_range"`
	SalesSheetID    string        `koanf:"sales_sheet_id"`
	SalesRange      string        `koanf:"sales_range"`
	Timeout         time.Duration `koanf:"timeout"`
}

type AdminConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
}

type SessionConfig struct {
	Secret string        `koanf:"secret"`
	MaxAge time.Duration `koanf:"max_age"`
	Secure bool          `koanf:"secure"`
}

type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

type PricingConfig struct {
	WholesaleThreshold int `koanf:"wholesale_threshold"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Load reads defaults, then the optional YAML file at configPath, then the
// environment (after loading a .env file when one is present).
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration produced by the defaults alone.
func Default() *Config {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		panic(fmt.Sprintf("config: defaults: %v", err))
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		panic(fmt.Sprintf("config: defaults: %v", err))
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "pos-sales",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8081,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"storage.driver":     "file",
		"storage.path":       "data/snapshots.json",
		"storage.sql_driver": "sqlite",
		"storage.key_prefix": "pos",

		"sheets.base_url":       "https://sheets.googleapis.com/v4",
		"sheets.products_range": "Products!A2:E",
		"sheets.sales_range":    "Sales!A1",
		"sheets.timeout":        "10s",

		"admin.email":    "admin@admin.com",
		"admin.password": "admin",
		"admin.name":     "Administrator",

		"session.max_age": "24h",
		"session.secure":  false,

		"rate_limit.enabled": true,
		"rate_limit.rps":     1.0,
		"rate_limit.burst":   10,

		"pricing.wholesale_threshold": 3,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "pos-sales",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":         "app.environment",
	"HOST":                "server.host",
	"PORT":                "server.port",
	"STORAGE_DRIVER":      "storage.driver",
	"STORAGE_PATH":        "storage.path",
	"REDIS_URL":           "storage.redis_url",
	"SQL_DRIVER":          "storage.sql_driver",
	"DATABASE_URL":        "storage.sql_dsn",
	"STORAGE_KEY_PREFIX":  "storage.key_prefix",
	"SHEETS_BASE_URL":     "sheets.base_url",
	"GOOGLE_API_KEY":      "sheets.api_key",
	"PRODUCTS_SHEET_ID":   "sheets.products_sheet_id",
	"PRODUCTS_RANGE":      "sheets.products_range",
	"SALES_SHEET_ID":      "sheets.sales_sheet_id",
	"SALES_RANGE":         "sheets.sales_range",
	"SHEETS_TIMEOUT":      "sheets.timeout",
	"ADMIN_EMAIL":         "admin.email",
	"ADMIN_PASSWORD":      "admin.password",
	"ADMIN_NAME":          "admin.name",
	"SESSION_SECRET":      "session.secret",
	"SESSION_MAX_AGE":     "session.max_age",
	"SESSION_SECURE":      "session.secure",
	"RATE_LIMIT_ENABLED":  "rate_limit.enabled",
	"RATE_LIMIT_RPS":      "rate_limit.rps",
	"RATE_LIMIT_BURST":    "rate_limit.burst",
	"WHOLESALE_THRESHOLD": "pricing.wholesale_threshold",
	"LOG_LEVEL":           "log.level",
	"LOG_FORMAT":          "log.format",
	"OTEL_ENDPOINT":       "otel.endpoint",
	"OTEL_SERVICE_NAME":   "otel.service_name",
	"OTEL_ENABLED":        "otel.enabled",
	"OTEL_INSECURE":       "otel.insecure",
	"OTEL_SAMPLE_RATE":    "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	switch c.Storage.Driver {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("STORAGE_PATH is required for the file driver")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis driver")
		}
	case "sql":
		if c.Storage.SQLDSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the sql driver")
		}
		if c.Storage.SQLDriver != "sqlite" && c.Storage.SQLDriver != "pgx" {
			return fmt.Errorf("unsupported sql driver %q", c.Storage.SQLDriver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if c.Admin.Email == "" || c.Admin.Password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	if c.Pricing.WholesaleThreshold < 0 {
		return fmt.Errorf("pricing.wholesale_threshold must not be negative")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be positive")
	}

	if c.App.Environment == "production" {
		if c.Session.Secret == "" {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// SheetsEnabled reports whether any spreadsheet integration is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.APIKey != "" && (c.Sheets.ProductsSheetID != "" || c.Sheets.SalesSheetID != "")
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
