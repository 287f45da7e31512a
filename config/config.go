package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jonwraymond/fibops/observe"
	"github.com/jonwraymond/fibops/secret"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIBOPS"

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig    `mapstructure:"server"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Limits  LimitsConfig    `mapstructure:"limits"`
	Auth    AuthConfig      `mapstructure:"auth"`
	Health  HealthConfig    `mapstructure:"health"`
	Observe TelemetryConfig `mapstructure:"observe"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	// RequestTimeout bounds how long a caller waits for one evaluation.
	// Zero disables the bound.
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxN is the largest index the HTTP endpoint accepts.
	MaxN int `mapstructure:"max_n"`
}

// CacheConfig configures the memo table.
type CacheConfig struct {
	// MaxEntries bounds the table. Zero means unbounded.
	MaxEntries int `mapstructure:"max_entries"`
}

// LimitsConfig configures request shedding. Zero disables each guard.
type LimitsConfig struct {
	Rate          float64 `mapstructure:"rate"`
	Burst         int     `mapstructure:"burst"`
	MaxConcurrent int     `mapstructure:"max_concurrent"`
}

// HealthConfig configures the memory health check.
type HealthConfig struct {
	// MaxHeapBytes is the heap budget judged by /health and /readyz.
	// Zero reports heap usage without a verdict.
	MaxHeapBytes uint64 `mapstructure:"max_heap_bytes"`
}

// AuthConfig configures optional request authentication.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// APIKeys are "principal:key" pairs, or bare keys.
	APIKeys     []string `mapstructure:"api_keys"`
	JWTSecret   string   `mapstructure:"jwt_secret"`
	JWTIssuer   string   `mapstructure:"jwt_issuer"`
	JWTAudience string   `mapstructure:"jwt_audience"`
}

// TelemetryConfig configures logging, tracing and metrics.
type TelemetryConfig struct {
	ServiceName     string  `mapstructure:"service_name"`
	LogLevel        string  `mapstructure:"log_level"`
	TracingExporter string  `mapstructure:"tracing_exporter"`
	MetricsExporter string  `mapstructure:"metrics_exporter"`
	SamplePct       float64 `mapstructure:"sample_pct"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			RequestTimeout:    10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxN:              10000,
		},
		Observe: TelemetryConfig{
			ServiceName:     "fibops",
			LogLevel:        "info",
			TracingExporter: "none",
			MetricsExporter: "none",
			SamplePct:       1.0,
		},
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"addr":              "server.addr",
	"max-n":             "server.max_n",
	"request-timeout":   "server.request_timeout",
	"cache-max-entries": "cache.max_entries",
	"log-level":         "observe.log_level",
	"metrics-exporter":  "observe.metrics_exporter",
	"tracing-exporter":  "observe.tracing_exporter",
}

// RegisterFlags defines the overridable flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.Server.Addr, "listen address")
	fs.Int("max-n", d.Server.MaxN, "largest index served over HTTP")
	fs.Duration("request-timeout", d.Server.RequestTimeout, "per-request evaluation timeout (0 disables)")
	fs.Int("cache-max-entries", d.Cache.MaxEntries, "memo table bound (0 = unbounded)")
	fs.String("log-level", d.Observe.LogLevel, "log level: debug|info|warn|error")
	fs.String("metrics-exporter", d.Observe.MetricsExporter, "metrics exporter: prometheus|otlp|stdout|none")
	fs.String("tracing-exporter", d.Observe.TracingExporter, "tracing exporter: otlp|jaeger|stdout|none")
}

// Load reads configuration from path (optional), the environment and flags.
// flags may be nil; only flags known to RegisterFlags are bound.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_n", d.Server.MaxN)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("limits.rate", d.Limits.Rate)
	v.SetDefault("limits.burst", d.Limits.Burst)
	v.SetDefault("limits.max_concurrent", d.Limits.MaxConcurrent)
	v.SetDefault("auth.enabled", d.Auth.Enabled)
	v.SetDefault("auth.api_keys", d.Auth.APIKeys)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.jwt_issuer", d.Auth.JWTIssuer)
	v.SetDefault("auth.jwt_audience", d.Auth.JWTAudience)
	v.SetDefault("health.max_heap_bytes", d.Health.MaxHeapBytes)
	v.SetDefault("observe.service_name", d.Observe.ServiceName)
	v.SetDefault("observe.log_level", d.Observe.LogLevel)
	v.SetDefault("observe.tracing_exporter", d.Observe.TracingExporter)
	v.SetDefault("observe.metrics_exporter", d.Observe.MetricsExporter)
	v.SetDefault("observe.sample_pct", d.Observe.SamplePct)

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.expandSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandSecrets() error {
	values := make([]*string, 0, len(c.Auth.APIKeys)+1)
	values = append(values, &c.Auth.JWTSecret)
	for i := range c.Auth.APIKeys {
		values = append(values, &c.Auth.APIKeys[i])
	}
	if err := secret.ExpandAll(values...); err != nil {
		return fmt.Errorf("failed to expand auth secrets: %w", err)
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxN < 1 {
		errs = append(errs, fmt.Errorf("server.max_n must be positive, got %d", c.Server.MaxN))
	}
	if c.Server.ReadHeaderTimeout < 0 || c.Server.RequestTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.max_entries must not be negative, got %d", c.Cache.MaxEntries))
	}
	if c.Limits.Rate < 0 || c.Limits.Burst < 0 || c.Limits.MaxConcurrent < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.enabled requires auth.api_keys or auth.jwt_secret"))
	}

	obs := c.ObserveConfig()
	if err := obs.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ObserveConfig converts the telemetry section to an observe.Config.
// Version is left for the caller to set.
func (c *Config) ObserveConfig() observe.Config {
	enabled := func(exporter string) bool {
		return exporter != "" && exporter != "none"
	}

	return observe.Config{
		ServiceName: c.Observe.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   enabled(c.Observe.TracingExporter),
			Exporter:  c.Observe.TracingExporter,
			SamplePct: c.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  enabled(c.Observe.MetricsExporter),
			Exporter: c.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Observe.LogLevel,
		},
	}
}
