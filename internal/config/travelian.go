package config

import (
	"time"

	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
	"github.com/Kocoro-lab/travelian/internal/models"
	"github.com/Kocoro-lab/travelian/internal/ratecontrol"
	"github.com/Kocoro-lab/travelian/internal/tracing"
)

// Config is the complete service configuration
type Config struct {
	Environment string `mapstructure:"environment"`

	Service   ServiceConfig   `mapstructure:"service"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Model     ModelConfig     `mapstructure:"model"`
	Catalogs  CatalogConfig   `mapstructure:"catalogs"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServiceConfig contains HTTP server settings
type ServiceConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	// PlanTimeout bounds a whole /travel/plan request.
	PlanTimeout time.Duration `mapstructure:"plan_timeout"`
}

// LoggingConfig selects the zap logger flavour
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelConfig configures the Gemini gateway
type ModelConfig struct {
	BaseURL          string                  `mapstructure:"base_url"`
	Name             string                  `mapstructure:"name"`
	APIKey           string                  `mapstructure:"api_key"`
	CredentialPrefix string                  `mapstructure:"credential_prefix"`
	RequestTimeout   time.Duration           `mapstructure:"request_timeout"`
	Generation       models.GenerationConfig `mapstructure:"generation"`
	RateLimit        ratecontrol.RateLimit   `mapstructure:"rate_limit"`
	CircuitBreaker   circuitbreaker.Settings `mapstructure:"circuit_breaker"`
}

// CatalogConfig points at persona and task catalogues on disk.
// Empty paths select the catalogues compiled into the binary.
type CatalogConfig struct {
	Personas string `mapstructure:"personas"`
	Tasks    string `mapstructure:"tasks"`
}

// CORSConfig lists browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig limits inbound POST requests per client
type RateLimitConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	KeyPrefix         string `mapstructure:"key_prefix"`
}

// RedisConfig locates the Redis instance backing the rate limiter
type RedisConfig struct {
	URL            string                  `mapstructure:"url"`
	CircuitBreaker circuitbreaker.Settings `mapstructure:"circuit_breaker"`
}

// LedgerConfig configures the optional run ledger
type LedgerConfig struct {
	Enabled        bool                    `mapstructure:"enabled"`
	Driver         string                  `mapstructure:"driver"`
	DSN            string                  `mapstructure:"dsn"`
	MaxOpenConns   int                     `mapstructure:"max_open_conns"`
	CircuitBreaker circuitbreaker.Settings `mapstructure:"circuit_breaker"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Ledger drivers accepted by the run ledger.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// defaults are applied to viper before any file or environment source.
var defaults = map[string]any{
	"environment": "development",

	"service.port":             8000,
	"service.read_timeout":     "15s",
	"service.write_timeout":    "10m",
	"service.graceful_timeout": "30s",
	"service.plan_timeout":     "10m",

	"logging.level":  "info",
	"logging.format": "json",

	"model.base_url":                          models.DefaultBaseURL,
	"model.name":                              models.DefaultModel,
	"model.credential_prefix":                 models.DefaultCredentialPrefix,
	"model.request_timeout":                   "120s",
	"model.generation.temperature":            0.7,
	"model.generation.top_p":                  0.95,
	"model.generation.top_k":                  40,
	"model.generation.max_output_tokens":      8192,
	"model.rate_limit.rpm":                    0,
	"model.rate_limit.tpm":                    0,
	"model.circuit_breaker.max_requests":      5,
	"model.circuit_breaker.interval":          "30s",
	"model.circuit_breaker.timeout":           "15s",
	"model.circuit_breaker.failure_threshold": 3,
	"model.circuit_breaker.success_threshold": 2,

	"catalogs.personas": "",
	"catalogs.tasks":    "",

	"cors.allowed_origins": []string{"http://localhost:3000", "http://localhost:3001", "http://localhost:3002"},

	"rate_limit.enabled":             false,
	"rate_limit.requests_per_minute": 30,
	"rate_limit.key_prefix":          "travelian:ratelimit",

	"redis.url":                               "",
	"redis.circuit_breaker.max_requests":      5,
	"redis.circuit_breaker.interval":          "30s",
	"redis.circuit_breaker.timeout":           "60s",
	"redis.circuit_breaker.failure_threshold": 5,
	"redis.circuit_breaker.success_threshold": 2,

	"ledger.enabled":                           false,
	"ledger.driver":                            DriverSQLite,
	"ledger.dsn":                               "file:travelian.db?_busy_timeout=5000",
	"ledger.max_open_conns":                    4,
	"ledger.circuit_breaker.max_requests":      3,
	"ledger.circuit_breaker.interval":          "30s",
	"ledger.circuit_breaker.timeout":           "60s",
	"ledger.circuit_breaker.failure_threshold": 3,
	"ledger.circuit_breaker.success_threshold": 2,

	"tracing.enabled":       false,
	"tracing.service_name":  "travelian",
	"tracing.otlp_endpoint": "localhost:4317",

	"metrics.enabled": true,
	"metrics.path":    "/metrics",
}

// envBindings map conventional variable names onto config keys.
// Every other key is also reachable as TRAVELIAN_<SECTION>_<KEY>.
var envBindings = map[string][]string{
	"environment":           {"ENVIRONMENT"},
	"service.port":          {"PORT"},
	"logging.level":         {"LOG_LEVEL"},
	"logging.format":        {"LOG_FORMAT"},
	"model.api_key":         {"GEMINI_API_KEY"},
	"model.name":            {"GEMINI_MODEL"},
	"model.base_url":        {"GEMINI_BASE_URL"},
	"redis.url":             {"REDIS_URL"},
	"ledger.dsn":            {"LEDGER_DSN"},
	"ledger.driver":         {"LEDGER_DRIVER"},
	"tracing.otlp_endpoint": {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}
