// Package config provides application configuration loaded from environment variables.
// It is resolved once at process start and passed explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Session   SessionConfig
	Mail      MailConfig
	Storage   StorageConfig
	Gemini    GeminiConfig
	Billing   BillingConfig
	Log       LogConfig
	Admin     AdminConfig
	Reminders ReminderConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
	// LoginRate is the number of login attempts per minute allowed per client IP.
	LoginRate int
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string
	DSNValue string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
	Debug    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	MigrationsDir string
	Seed          bool
	BaseURL       string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// MailConfig is unconfigured when Host is empty; mail is then only logged.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func (m MailConfig) Enabled() bool { return m.Host != "" }

type StorageConfig struct {
	Type      string // local | s3
	LocalPath string
	S3Bucket  string
	S3Region  string
	AccessKey string
	SecretKey string
	MaxUpload int64 // bytes
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func (g GeminiConfig) Enabled() bool { return g.APIKey != "" }

type BillingConfig struct {
	VATRate  float64
	Currency string
}

type LogConfig struct {
	Level       string
	Environment string
	Service     string
}

// AdminConfig seeds the first administrator account.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

type ReminderConfig struct {
	Schedule string
}

// DSN returns the connection string for the configured driver.
// DATABASE_DSN, when set, wins over the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.DSNValue != "" {
		return d.DSNValue
	}
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format, as golang-migrate expects.
func (d DatabaseConfig) URL() string {
	if strings.HasPrefix(d.DSNValue, "postgres://") || strings.HasPrefix(d.DSNValue, "postgresql://") {
		return d.DSNValue
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
// DevSessionSecret signs sessions when SESSION_SECRET is unset. Validate refuses
// it outside development.
const DevSessionSecret = "devsessionsecret"

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			LoginRate:    getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			DSNValue: os.Getenv("DATABASE_DSN"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "lawfirm"),
			Password: getEnv("DB_PASSWORD", "lawfirm123"),
			DBName:   getEnv("DB_NAME", "lawfirm"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "lawfirm.db"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    getEnvBool("MIGRATIONS", false),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
			Seed:          getEnvBool("DB_SEED", true),
			BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", DevSessionSecret),
			TTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 8)) * time.Hour,
			Secure: getEnvBool("SESSION_SECURE", false),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@jurisflow.local"),
			FromName: getEnv("SMTP_FROM_NAME", "JurisFlow"),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./storage/files"),
			S3Bucket:  os.Getenv("AWS_S3_BUCKET"),
			S3Region:  getEnv("AWS_REGION", "eu-central-1"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			MaxUpload: int64(getEnvInt("STORAGE_MAX_UPLOAD_MB", 25)) << 20,
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Billing: BillingConfig{
			VATRate:  getEnvFloat("VAT_RATE", 0.18),
			Currency: getEnv("CURRENCY", "TRY"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("APP_ENV", "development"),
			Service:     getEnv("SERVICE_NAME", "lawfirm"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@jurisflow.com"),
			Password: getEnv("ADMIN_PASSWORD", "Admin123!"),
			Name:     getEnv("ADMIN_NAME", "Admin"),
		},
		Reminders: ReminderConfig{
			Schedule: getEnv("REMINDER_SCHEDULE", "@every 1m"),
		},
	}
}

// Validate reports settings that must not reach a non-development deployment.
func (c *Config) Validate() error {
	if c.App.Dev {
		return nil
	}
	if c.Session.Secret == "" || c.Session.Secret == DevSessionSecret {
		return errors.New("SESSION_SECRET must be set when DEV is off")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
