package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is read when CONFIG_PATH is unset and the file exists.
const DefaultPath = "config/travelian.yaml"

// Load reads configuration from CONFIG_PATH (or DefaultPath when present),
// applies defaults and environment overrides, and validates the result.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file. An empty path uses defaults and
// environment only; a non-empty path must exist.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("TRAVELIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		// Prefixed names keep precedence over the conventional ones.
		args := append([]string{key, "TRAVELIAN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Model.APIKey = strings.TrimSpace(c.Model.APIKey)
	c.Ledger.Driver = strings.ToLower(strings.TrimSpace(c.Ledger.Driver))

	origins := c.CORS.AllowedOrigins[:0]
	for _, o := range c.CORS.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORS.AllowedOrigins = origins
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		errs = append(errs, fmt.Errorf("service port must be between 1 and 65535, got %d", c.Service.Port))
	}
	if c.Service.PlanTimeout <= 0 {
		errs = append(errs, fmt.Errorf("service plan_timeout must be positive"))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging format %q is not json or console", c.Logging.Format))
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		errs = append(errs, fmt.Errorf("model name is required"))
	}
	if c.Model.RateLimit.RPM < 0 || c.Model.RateLimit.TPM < 0 {
		errs = append(errs, fmt.Errorf("model rate_limit values must not be negative"))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute < 1 {
			errs = append(errs, fmt.Errorf("rate_limit requests_per_minute must be at least 1 when enabled"))
		}
		if c.Redis.URL == "" {
			errs = append(errs, fmt.Errorf("rate_limit requires redis url"))
		}
	}
	if c.Ledger.Enabled {
		if c.Ledger.Driver != DriverPostgres && c.Ledger.Driver != DriverSQLite {
			errs = append(errs, fmt.Errorf("ledger driver %q is not %s or %s", c.Ledger.Driver, DriverPostgres, DriverSQLite))
		}
		if c.Ledger.DSN == "" {
			errs = append(errs, fmt.Errorf("ledger dsn is required when enabled"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}
