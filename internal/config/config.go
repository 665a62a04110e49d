// Package config handles application configuration loading from environment
// variables. Each section is parsed with kelseyhightower/envconfig under its
// own prefix, so variables read as APP_PORT, POSTGRES_HOST, VALKEY_HOST, etc.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// defaultDBPassword is rejected outside development.
const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Valkey    ValkeyConfig
	Log       LogConfig
	Blog      BlogConfig
	Admin     AdminConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings (prefix APP).
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"8080"`
	Env             string        `envconfig:"ENV" default:"development"` // "development", "production", "testing"
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings (prefix POSTGRES).
type DatabaseConfig struct {
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"5432"`
	User            string        `envconfig:"USER" default:"blogcms"`
	Password        string        `envconfig:"PASSWORD" default:"changeme"`
	Name            string        `envconfig:"DB" default:"blogcms"`
	SSLMode         string        `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"5m"`

	// SlowQuery is the duration above which store queries are logged as slow.
	SlowQuery time.Duration `envconfig:"SLOW_QUERY" default:"200ms"`
}

// ValkeyConfig holds the Redis-compatible cache and session settings
// (prefix VALKEY).
type ValkeyConfig struct {
	Host     string        `envconfig:"HOST" default:"localhost"`
	Port     int           `envconfig:"PORT" default:"6379"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// LogConfig holds logging settings (prefix LOG).
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`  // debug, info, warn, error
	Format string `envconfig:"FORMAT" default:"text"` // text, json
}

// BlogConfig holds blog rules and listing sizes (prefix BLOG).
type BlogConfig struct {
	// RootCategoryID identifies the undeletable root category.
	RootCategoryID int64 `envconfig:"ROOT_CATEGORY_ID" default:"1"`
	APIPerPage     int   `envconfig:"API_PER_PAGE" default:"10"`
	AdminPerPage   int   `envconfig:"ADMIN_PER_PAGE" default:"5"`
}

// AdminConfig holds the credentials of the seeded admin user (prefix ADMIN).
type AdminConfig struct {
	Name     string `envconfig:"NAME" default:"Admin"`
	Email    string `envconfig:"EMAIL" default:"admin@blogcms.local"`
	Password string `envconfig:"PASSWORD" default:"admin"`
}

// TelemetryConfig controls OpenTelemetry export (prefix TELEMETRY). When
// disabled, spans and metrics are dropped by the no-op global providers.
type TelemetryConfig struct {
	Enabled        bool          `envconfig:"ENABLED" default:"false"`
	Endpoint       string        `envconfig:"ENDPOINT" default:"localhost:4318"` // OTLP/HTTP collector host:port
	Insecure       bool          `envconfig:"INSECURE" default:"true"`
	ServiceName    string        `envconfig:"SERVICE_NAME" default:"blogcms"`
	MetricInterval time.Duration `envconfig:"METRIC_INTERVAL" default:"30s"`
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a value cannot be
// parsed or if critical values are missing in production mode.
func Load() (*Config, error) {
	var cfg Config

	sections := []struct {
		prefix string
		target any
	}{
		{"APP", &cfg.Server},
		{"POSTGRES", &cfg.Database},
		{"VALKEY", &cfg.Valkey},
		{"LOG", &cfg.Log},
		{"BLOG", &cfg.Blog},
		{"ADMIN", &cfg.Admin},
		{"TELEMETRY", &cfg.Telemetry},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return nil, fmt.Errorf("load %s config: %w", s.prefix, err)
		}
	}

	if cfg.Server.Env == "production" && cfg.Database.Password == defaultDBPassword {
		return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricInterval <= 0 {
		return nil, fmt.Errorf("TELEMETRY_METRIC_INTERVAL must be positive, got %s", cfg.Telemetry.MetricInterval)
	}
	if cfg.Blog.RootCategoryID <= 0 {
		return nil, fmt.Errorf("BLOG_ROOT_CATEGORY_ID must be positive, got %d", cfg.Blog.RootCategoryID)
	}

	return &cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Addr returns the Valkey address (host:port).
func (c *ValkeyConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addr returns the server listen address (host:port).
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Server.Env == "development"
}
