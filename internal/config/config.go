package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Txn       TxnConfig
	Auth      AuthConfig
	Renderer  RendererConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Redis     RedisConfig
	Reporting ReportingConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
	// PublicURL is the externally reachable base URL, used to build the
	// summary page address handed to the renderer and image links.
	PublicURL string
}

// DatabaseConfig selects and sizes the relational store.
type DatabaseConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// TxnConfig tunes the transactional write executor.
type TxnConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// AuthConfig verifies bearer tokens issued by the identity provider.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// RendererConfig points at the headless rendering service.
type RendererConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
	Bucket string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Both fields empty disables the summary ledger export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	Range           string
}

// Enabled reports whether the ledger export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// RedisConfig configures the render lock. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the configured timezone.
func (r ReportingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	maxOpenConns, err := getenvInt("DATABASE_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	maxRetries, err := getenvInt("TXN_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	initialBackoff, err := getenvDuration("TXN_INITIAL_BACKOFF", 50*time.Millisecond)
	if err != nil {
		return nil, err
	}
	maxBackoff, err := getenvDuration("TXN_MAX_BACKOFF", 2*time.Second)
	if err != nil {
		return nil, err
	}
	rendererTimeout, err := getenvDuration("RENDERER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	redisDB, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	lockTTL, err := getenvDuration("REDIS_LOCK_TTL", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      getenvWithDefault("APP_PORT", "8080"),
			PublicURL: getenvWithDefault("PUBLIC_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Driver:       getenvWithDefault("DATABASE_DRIVER", "postgres"),
			DSN:          os.Getenv("DATABASE_DSN"),
			MaxOpenConns: maxOpenConns,
		},
		Txn: TxnConfig{
			MaxRetries:     maxRetries,
			InitialBackoff: initialBackoff,
			MaxBackoff:     maxBackoff,
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			Issuer:    os.Getenv("AUTH_ISSUER"),
		},
		Renderer: RendererConfig{
			BaseURL: os.Getenv("RENDERER_BASE_URL"),
			APIKey:  os.Getenv("RENDERER_API_KEY"),
			Timeout: rendererTimeout,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "flocktrack"),
			Bucket: getenvWithDefault("MONGODB_IMAGE_BUCKET", "summary_images"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_SUMMARY_ID"),
			Range:           getenvWithDefault("GOOGLE_SHEET_SUMMARY_RANGE", "Summaries!A:J"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			LockTTL:  lockTTL,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 6 1 * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Database.Driver {
	case "postgres", "postgresql", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return errors.New("DATABASE_DSN must be provided")
	}

	if c.Txn.MaxRetries < 0 {
		return errors.New("TXN_MAX_RETRIES must not be negative")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must be provided")
	}

	if c.Renderer.BaseURL == "" {
		return errors.New("RENDERER_BASE_URL must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_SUMMARY_ID must be provided together")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := c.Reporting.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
