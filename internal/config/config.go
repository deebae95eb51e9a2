package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers
const (
	StoreSurrealDB = "surrealdb"
	StoreBadger    = "badger"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Badger    BadgerConfig
	JWT       JWTConfig
	OAuth     OAuthConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	Env            string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"surrealdb"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"guildhall"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
}

// BadgerConfig holds embedded store settings
type BadgerConfig struct {
	Path       string        `env:"BADGER_PATH" envDefault:"./data"`
	InMemory   bool          `env:"BADGER_IN_MEMORY" envDefault:"false"`
	SyncWrites bool          `env:"BADGER_SYNC_WRITES" envDefault:"true"`
	GCInterval time.Duration `env:"BADGER_GC_INTERVAL" envDefault:"5m"`
}

// JWTConfig holds token settings
type JWTConfig struct {
	Secret         string `env:"JWT_SECRET"`
	PrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	PublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`
	Issuer         string `env:"JWT_ISSUER"`
	ExpirationMins int    `env:"JWT_EXPIRATION_MINS" envDefault:"0"`
	CookieName     string        `env:"COOKIE_NAME" envDefault:"token"`
	CookieDomain   string        `env:"COOKIE_DOMAIN"`
	CookieMaxAge   time.Duration `env:"COOKIE_MAX_AGE" envDefault:"720h"`
}

// OAuthConfig holds the login provider settings. Login is disabled while
// OAUTH_CLIENT_ID is empty. Endpoints default to Discord.
type OAuthConfig struct {
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"OAUTH_REDIRECT_URL"`
	AuthURL      string   `env:"OAUTH_AUTH_URL" envDefault:"https://discord.com/oauth2/authorize"`
	TokenURL     string   `env:"OAUTH_TOKEN_URL" envDefault:"https://discord.com/api/oauth2/token"`
	UserInfoURL  string   `env:"OAUTH_USERINFO_URL" envDefault:"https://discord.com/api/users/@me"`
	Scopes       []string `env:"OAUTH_SCOPES" envDefault:"identify" envSeparator:","`
}

// Enabled returns true when a login provider is configured
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}

// EventsConfig tunes the change stream
type EventsConfig struct {
	Buffer    int           `env:"EVENTS_BUFFER" envDefault:"100"`
	Heartbeat time.Duration `env:"EVENTS_HEARTBEAT" envDefault:"30s"`
}

// RateLimitConfig holds per-caller request limits
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// AuditConfig schedules the invariant auditor
type AuditConfig struct {
	Interval time.Duration `env:"AUDIT_INTERVAL" envDefault:"5m"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogLevel returns the slog level for LOG_LEVEL, defaulting to info
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got '%s'", c.Log.Level))
	}

	// Store validation
	switch c.Store.Driver {
	case StoreSurrealDB:
		var missing []string
		if c.Database.Host == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.Database.Port == "" {
			missing = append(missing, "DB_PORT")
		}
		if c.Database.Namespace == "" {
			missing = append(missing, "DB_NAMESPACE")
		}
		if c.Database.Database == "" {
			missing = append(missing, "DB_DATABASE")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("surrealdb store: missing %s", strings.Join(missing, ", ")))
		}
	case StoreBadger:
		if !c.Badger.InMemory && c.Badger.Path == "" {
			errs = append(errs, errors.New("BADGER_PATH is required unless BADGER_IN_MEMORY is true"))
		}
		if c.Badger.GCInterval < 0 {
			errs = append(errs, errors.New("BADGER_GC_INTERVAL must not be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be '%s' or '%s', got '%s'", StoreSurrealDB, StoreBadger, c.Store.Driver))
	}

	// JWT validation - every route that reads a token needs a key
	if c.JWT.Secret == "" && c.JWT.PublicKeyPath == "" && c.JWT.PrivateKeyPath == "" {
		errs = append(errs, errors.New("JWT_SECRET, JWT_PRIVATE_KEY_PATH or JWT_PUBLIC_KEY_PATH is required"))
	}
	if c.JWT.ExpirationMins < 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must not be negative"))
	}
	if c.JWT.CookieName == "" {
		errs = append(errs, errors.New("COOKIE_NAME is required"))
	}
	if c.JWT.CookieMaxAge <= 0 {
		errs = append(errs, errors.New("COOKIE_MAX_AGE must be positive"))
	}

	// OAuth validation
	if c.OAuth.Enabled() {
		var missing []string
		if c.OAuth.ClientSecret == "" {
			missing = append(missing, "OAUTH_CLIENT_SECRET")
		}
		if c.OAuth.RedirectURL == "" {
			missing = append(missing, "OAUTH_REDIRECT_URL")
		}
		if c.OAuth.AuthURL == "" {
			missing = append(missing, "OAUTH_AUTH_URL")
		}
		if c.OAuth.TokenURL == "" {
			missing = append(missing, "OAUTH_TOKEN_URL")
		}
		if c.OAuth.UserInfoURL == "" {
			missing = append(missing, "OAUTH_USERINFO_URL")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("oauth login: missing %s", strings.Join(missing, ", ")))
		}
		if c.JWT.Secret == "" && c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("oauth login signs tokens and needs JWT_SECRET or JWT_PRIVATE_KEY_PATH"))
		}
	}

	// Stream and limits
	if c.Events.Buffer <= 0 {
		errs = append(errs, errors.New("EVENTS_BUFFER must be positive"))
	}
	if c.Events.Heartbeat < 0 {
		errs = append(errs, errors.New("EVENTS_HEARTBEAT must not be negative"))
	}
	if c.RateLimit.RPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive"))
	}
	if c.Audit.Interval < 0 {
		errs = append(errs, errors.New("AUDIT_INTERVAL must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
