// Package config loads the service configuration.
//
// Values come from three layers, later ones winning:
//   - built-in defaults (see defaults below),
//   - a `.env` file in the working directory (autoloaded),
//   - process environment variables prefixed with PORTFOLIO_.
//
// Nested keys use a double underscore, so PORTFOLIO_SERVER__READ_TIMEOUT
// maps to server.read_timeout and ends up in Config.Server.ReadTimeout.
// The resulting struct is validated before it is handed to the rest of the app.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Loads `.env` into the process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "PORTFOLIO_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because the whole block is optional; when it is
// missing LoadConfig injects DefaultObservabilityConfig.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Cache         CacheConfig          `koanf:"cache"`
	Pagination    PaginationConfig     `koanf:"pagination"`
	Storage       StorageConfig        `koanf:"storage" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment
// (local, development, staging, production).
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimit is the sustained number of requests per second allowed per client IP.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`
	// RateBurst is how many requests a client may fire at once before being limited.
	RateBurst int `koanf:"rate_burst" validate:"gte=1"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// DSN builds the postgres:// connection URL for this database.
func (d DatabaseConfig) DSN() string {
	return buildDSN(d)
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AuthConfig stores the Clerk secret used to verify session tokens.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// CacheConfig controls the Redis-backed response cache for read endpoints.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl" validate:"min=1s"`
	Prefix  string        `koanf:"prefix" validate:"required"`
}

// PaginationConfig sets the page size used by list endpoints and the upper
// bound a client may request through ?page_size=.
type PaginationConfig struct {
	DefaultPageSize int `koanf:"default_page_size" validate:"gte=1"`
	MaxPageSize     int `koanf:"max_page_size" validate:"gtefield=DefaultPageSize"`
}

// StorageConfig describes where uploaded files live and how they are exposed.
type StorageConfig struct {
	UploadDir      string `koanf:"upload_dir" validate:"required"`
	PublicBaseURL  string `koanf:"public_base_url" validate:"required,url"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes" validate:"gte=1"`
}

// IntegrationConfig holds third-party credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	// NotifyEmail receives a message whenever a project is created.
	// Empty disables notifications.
	NotifyEmail string `koanf:"notify_email" validate:"omitempty,email"`
	EmailFrom   string `koanf:"email_from" validate:"required"`
}

// defaults are loaded before the environment so every optional key has a value.
var defaults = map[string]any{
	"server.read_timeout":          30,
	"server.write_timeout":         30,
	"server.idle_timeout":          60,
	"server.rate_limit":            20.0,
	"server.rate_burst":            40,
	"database.ssl_mode":            "disable",
	"database.max_open_conns":      25,
	"database.max_idle_conns":      25,
	"database.conn_max_lifetime":   300,
	"database.conn_max_idle_time":  300,
	"cache.enabled":                true,
	"cache.ttl":                    "15m",
	"cache.prefix":                 "portfolio",
	"pagination.default_page_size": 10,
	"pagination.max_page_size":     100,
	"storage.upload_dir":           "media",
	"storage.public_base_url":      "http://localhost:8080/media",
	"storage.max_upload_bytes":     10 << 20,
	"integration.email_from":       "Portfolio <onboarding@resend.dev>",
}

// envKey turns PORTFOLIO_SERVER__READ_TIMEOUT into server.read_timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// listKeys are read from comma separated environment values.
var listKeys = map[string]bool{
	"server.cors_allowed_origins": true,
}

// envKeyValue maps the variable name with envKey and splits list values.
func envKeyValue(name, value string) (string, any) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// LoadConfig reads defaults and environment variables into a Config,
// validates it and fills in the observability block.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("could not load config defaults: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	} else {
		mainConfig.Observability.applyDefaults()
	}

	// Service name and environment always follow the primary block so traces
	// and logs are labelled consistently.
	mainConfig.Observability.ServiceName = "portfolio"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// buildDSN joins host and port (IPv6 safe) and escapes the password so
// characters like '@' or ':' do not break the URL.
func buildDSN(d DatabaseConfig) string {
	hostPort := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		d.User,
		url.QueryEscape(d.Password),
		hostPort,
		d.Name,
		d.SSLMode,
	)
}
