package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RemindersConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Timezone   string `yaml:"timezone"`
	DailyHour  int    `yaml:"daily_hour"`
	DaysBefore int    `yaml:"days_before"`
	// RetentionDays bounds how long sent reminders are remembered.
	RetentionDays int `yaml:"retention_days"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

type Config struct {
	Server struct {
		Port               int      `yaml:"port"`
		ReadTimeoutSeconds int      `yaml:"read_timeout_seconds"`
		AllowedOrigins     []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	Store struct {
		Driver string `yaml:"driver"`
		// Fallback is used while the primary driver is unreachable (redis only).
		Fallback string `yaml:"fallback"`
		Path     string `yaml:"path"`
		Latency  string `yaml:"latency"`
	} `yaml:"store"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	Redis RedisConfig `yaml:"redis"`

	Backup BackupConfig `yaml:"backup"`

	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int    `yaml:"token_ttl_hours"`
	} `yaml:"auth"`

	Booking struct {
		RejectOverlaps bool   `yaml:"reject_overlaps"`
		DefaultGuests  int    `yaml:"default_guests"`
		NumberPrefix   string `yaml:"number_prefix"`
	} `yaml:"booking"`

	Catalog struct {
		Path                 string `yaml:"path"`
		WatchIntervalSeconds int    `yaml:"watch_interval_seconds"`
	} `yaml:"catalog"`

	Uploads struct {
		Dir       string `yaml:"dir"`
		BaseURL   string `yaml:"base_url"`
		MaxSizeMB int    `yaml:"max_size_mb"`
	} `yaml:"uploads"`

	Contact struct {
		RatePerMinute int `yaml:"rate_per_minute"`
	} `yaml:"contact"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Telegram struct {
		BotToken     string  `yaml:"bot_token"`
		AdminChatIDs []int64 `yaml:"admin_chat_ids"`
		// MonthlyReport sends last month's bookings workbook to the admin chats.
		MonthlyReport bool `yaml:"monthly_report"`
	} `yaml:"telegram"`

	Reminders RemindersConfig `yaml:"reminders"`

	Kafka KafkaConfig `yaml:"kafka"`

	Sheets SheetsConfig `yaml:"google_sheets"`
}

// Load reads the YAML config at path, expanding ${ENV_VAR} placeholders.
// A .env file next to the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes config bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Store.Driver == DriverSQLite || cfg.Store.Fallback == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	c.Store.Fallback = strings.ToLower(strings.TrimSpace(c.Store.Fallback))
	if c.Store.Path == "" {
		c.Store.Path = "data/yatrinivas.db"
	}
	if c.Store.Latency == "" {
		c.Store.Latency = "200ms"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Booking.DefaultGuests <= 0 {
		c.Booking.DefaultGuests = 2
	}
	if c.Booking.NumberPrefix == "" {
		c.Booking.NumberPrefix = "KYN"
	}
	if c.Catalog.WatchIntervalSeconds <= 0 {
		c.Catalog.WatchIntervalSeconds = 30
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "data/uploads"
	}
	if c.Uploads.BaseURL == "" {
		c.Uploads.BaseURL = "/uploads"
	}
	if c.Uploads.MaxSizeMB <= 0 {
		c.Uploads.MaxSizeMB = 10
	}
	if c.Contact.RatePerMinute <= 0 {
		c.Contact.RatePerMinute = 5
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Reminders.Timezone == "" {
		c.Reminders.Timezone = "Asia/Kolkata"
	}
	if c.Reminders.DailyHour == 0 {
		c.Reminders.DailyHour = 10
	}
	if c.Reminders.DaysBefore <= 0 {
		c.Reminders.DaysBefore = 1
	}
	if c.Reminders.RetentionDays <= 0 {
		c.Reminders.RetentionDays = 30
	}
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "Bookings"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("store.driver redis requires redis.address")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("store.driver postgres requires postgres.dsn")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch c.Store.Fallback {
	case "", DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("store.fallback must be memory or sqlite, got %q", c.Store.Fallback)
	}

	if _, err := time.ParseDuration(c.Store.Latency); err != nil {
		return fmt.Errorf("store.latency: %w", err)
	}
	if c.Reminders.DailyHour < 0 || c.Reminders.DailyHour > 23 {
		return fmt.Errorf("reminders.daily_hour must be 0-23, got %d", c.Reminders.DailyHour)
	}
	if _, err := time.LoadLocation(c.Reminders.Timezone); err != nil {
		return fmt.Errorf("reminders.timezone: %w", err)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}

// StoreLatency is the artificial delay applied to every store operation.
func (c *Config) StoreLatency() time.Duration {
	d, err := time.ParseDuration(c.Store.Latency)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) CatalogWatchInterval() time.Duration {
	return time.Duration(c.Catalog.WatchIntervalSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}
