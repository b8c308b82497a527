package common

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	FTP      FTPConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Resend   ResendConfig
	Metrics  MetricsConfig
	LogLevel slog.Level
}

// FTPConfig holds the remote file store settings
type FTPConfig struct {
	Host     string
	User     string
	Password string
	Dir      string
	Timeout  time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL              string
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// SMTPConfig holds alert mail settings
type SMTPConfig struct {
	Server   string
	Port     int
	From     string
	Password string
	To       string
	Timeout  time.Duration
}

// ResendConfig enables the Resend API as the alert channel when APIKey is set
type ResendConfig struct {
	APIKey string
	From   string
}

// MetricsConfig holds run metrics output settings
type MetricsConfig struct {
	TextfilePath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		FTP: FTPConfig{
			Host:     getEnv("FTP_HOST", ""),
			User:     getEnv("FTP_USER", ""),
			Password: getEnv("FTP_PASS", ""),
			Dir:      getEnv("FTP_DIR", ""),
			Timeout:  getEnvAsDuration("FTP_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:              getEnv("DB_URL", ""),
			Host:             getEnv("DB_HOST", ""),
			Port:             getEnvAsInt("DB_PORT", 5432),
			User:             getEnv("DB_USER", ""),
			Password:         getEnv("DB_PASS", ""),
			Name:             getEnv("DB_NAME", ""),
			SSLMode:          getEnv("DB_SSLMODE", "prefer"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 2),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 5*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		SMTP: SMTPConfig{
			Server:   getEnv("SMTP_SERVER", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			From:     getEnv("EMAIL_FROM", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			To:       getEnv("EMAIL_TO", ""),
			Timeout:  getEnvAsDuration("SMTP_TIMEOUT", 15*time.Second),
		},
		Resend: ResendConfig{
			APIKey: getEnv("RESEND_API_KEY", ""),
			From:   getEnv("RESEND_FROM_EMAIL", getEnv("EMAIL_FROM", "")),
		},
		Metrics: MetricsConfig{
			TextfilePath: getEnv("METRICS_TEXTFILE", ""),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// DSN returns DB_URL if set, otherwise a postgres URL assembled from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(value))); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// ValidateOptions relaxes requirements for local modes.
type ValidateOptions struct {
	SkipFTP      bool // --source-dir
	SkipDatabase bool // --inmem / --ledger-file
}

// Validate validates the loaded configuration
func (c *Config) Validate(opts ValidateOptions) error {
	v := NewValidator()
	if !opts.SkipFTP {
		v.Field("FTP_HOST", c.FTP.Host, Required).
			Field("FTP_USER", c.FTP.User, Required).
			Field("FTP_PASS", c.FTP.Password, Required)
	}
	if !opts.SkipDatabase && c.Database.URL == "" {
		v.Field("DB_HOST", c.Database.Host, Required).
			Field("DB_USER", c.Database.User, Required).
			Field("DB_NAME", c.Database.Name, Required).
			Field("DB_PORT", c.Database.Port, Port)
	}
	if c.Resend.APIKey != "" {
		v.Field("RESEND_FROM_EMAIL", c.Resend.From, Required).
			Field("EMAIL_TO", c.SMTP.To, Required)
	} else {
		v.Field("SMTP_SERVER", c.SMTP.Server, Required).
			Field("SMTP_PORT", c.SMTP.Port, Port).
			Field("EMAIL_FROM", c.SMTP.From, Required).
			Field("EMAIL_PASSWORD", c.SMTP.Password, Required).
			Field("EMAIL_TO", c.SMTP.To, Required)
	}
	return ValidateAndReturnError(v)
}
