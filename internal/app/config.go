package app

import (
	"os"
	"time"
	_ "time/tzdata" // report timezone in minimal images

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (ADMIN_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (ADMIN_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (ADMIN_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Store        StoreConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StoreConfig holds the business settings read once at startup and passed
// to the services that need them.
type StoreConfig struct {
	Currency           string `default:"ZAR" usage:"ISO currency of all cent amounts"`
	AllowNegativeStock bool   `default:"false" usage:"Accept stock adjustments that drive stock below zero" flag:"allow-negative-stock"`
	StatusFallback     bool   `default:"true" usage:"Retry failed order status updates with a direct single-row update" flag:"status-fallback"`
	Timezone           string `default:"Africa/Johannesburg" usage:"Timezone for report day buckets"`
}

// Location returns the configured report timezone.
func (c StoreConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "load timezone %q", c.Timezone)
	}
	return loc, nil
}

// RateLimitConfig controls the per-key token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"300" usage:"Burst size, refilled over one window"`
	Window time.Duration `default:"1m"  usage:"Time to refill a drained bucket"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins, exact or https://*.domain patterns"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ADMIN",
		Files:     []string{"config.yaml", "/etc/beauty-admin/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set ADMIN_DATABASE_URL or DATABASE_URL")
	case c.APIKeyPepper == "":
		return errors.New("api key pepper is required: set ADMIN_API_KEY_PEPPER")
	case len(c.Store.Currency) != 3:
		return errors.Errorf("store currency %q is not an ISO 4217 code", c.Store.Currency)
	}
	if _, err := c.Store.Location(); err != nil {
		return err
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the application's
// ADMIN_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
