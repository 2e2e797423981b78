// Package config loads signfetch client settings from a YAML file and the
// environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/signfetch/fetch"
	"github.com/vitalvas/signfetch/internal/log"
	"github.com/vitalvas/signfetch/paramsign"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete client configuration.
type Config struct {
	BaseURL       string              `yaml:"base_url"`
	BasePath      string              `yaml:"base_path"`
	Headers       map[string]string   `yaml:"headers,omitempty"`
	Timeout       time.Duration       `yaml:"timeout"`
	SuccessStatus int                 `yaml:"success_status"`
	Algorithm     paramsign.Algorithm `yaml:"algorithm"`
	IncludeURL    bool                `yaml:"include_url"`
	IncludeUser   bool                `yaml:"include_user"`
	RequestID     bool                `yaml:"request_id"`
	Policy        paramsign.Policy    `yaml:"policy"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Log           LogConfig           `yaml:"log"`
}

// AuthConfig holds credentials. Each value may be a literal or a secret
// reference ("keyring:<name>" or "env:<NAME>").
type AuthConfig struct {
	Token  string `yaml:"token"`
	Nonce  string `yaml:"nonce"`
	User   string `yaml:"user"`
	Secret string `yaml:"secret"`
}

// RateLimitConfig limits outgoing requests. Zero PerSecond disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Timeout:       fetch.DefaultTimeout,
		SuccessStatus: fetch.DefaultSuccessStatus,
		Algorithm:     paramsign.AlgorithmMD5,
		Log: LogConfig{
			Level:  "info",
			Format: string(log.FormatJSON),
		},
	}
}

// Load reads configuration from configPath (when non-empty), applies
// defaults and environment overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyDefaults fills in zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.SuccessStatus == 0 {
		c.SuccessStatus = defaults.SuccessStatus
	}
	if c.Algorithm == "" {
		c.Algorithm = defaults.Algorithm
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}
}

// loadFromEnv overrides settings from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("SIGNFETCH_BASE_URL"); val != "" {
		c.BaseURL = val
	}
	if val := os.Getenv("SIGNFETCH_BASE_PATH"); val != "" {
		c.BasePath = val
	}
	if val := os.Getenv("SIGNFETCH_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Timeout = d
		}
	}
	if val := os.Getenv("SIGNFETCH_TOKEN"); val != "" {
		c.Auth.Token = val
	}
	if val := os.Getenv("SIGNFETCH_NONCE"); val != "" {
		c.Auth.Nonce = val
	}
	if val := os.Getenv("SIGNFETCH_USER"); val != "" {
		c.Auth.User = val
	}
	if val := os.Getenv("SIGNFETCH_SECRET"); val != "" {
		c.Auth.Secret = val
	}

	logCfg := log.ApplyEnv(c.logConfig(nil))
	c.Log.Level = logCfg.Level
	c.Log.Format = string(logCfg.Format)
	c.Log.Source = logCfg.AddSource
}

func (c *Config) logConfig(w io.Writer) *log.Config {
	return &log.Config{
		Level:     c.Log.Level,
		Format:    log.Format(c.Log.Format),
		Output:    w,
		AddSource: c.Log.Source,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}

	if c.SuccessStatus == 0 {
		errs = append(errs, errors.New("success_status must be set"))
	}

	switch c.Algorithm {
	case paramsign.AlgorithmMD5, paramsign.AlgorithmHMACSHA256:
	default:
		errs = append(errs, fmt.Errorf("algorithm %q is not supported", c.Algorithm))
	}

	if c.RateLimit.PerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}

	switch log.Format(c.Log.Format) {
	case log.FormatJSON, log.FormatText:
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

// Credentials resolves the auth section into credentials.
func (c *Config) Credentials(ctx context.Context) (paramsign.Credentials, error) {
	var creds paramsign.Credentials

	fields := []struct {
		name string
		ref  string
		dst  *string
	}{
		{"token", c.Auth.Token, &creds.Token},
		{"nonce", c.Auth.Nonce, &creds.Nonce},
		{"user", c.Auth.User, &creds.User},
		{"secret", c.Auth.Secret, &creds.Secret},
	}

	for _, f := range fields {
		val, err := ResolveSecret(ctx, f.ref)
		if err != nil {
			return paramsign.Credentials{}, fmt.Errorf("auth.%s: %w", f.name, err)
		}
		*f.dst = val
	}

	return creds, nil
}

// Logger builds the logger described by the log section, writing to stderr.
func (c *Config) Logger() *slog.Logger {
	return c.LoggerTo(os.Stderr)
}

// LoggerTo builds the logger described by the log section, writing to w.
func (c *Config) LoggerTo(w io.Writer) *slog.Logger {
	return log.New(c.logConfig(w))
}

// ClientOptions converts the configuration into fetch options. Credentials
// are resolved and validated when a token is configured.
func (c *Config) ClientOptions(ctx context.Context, logger *slog.Logger) ([]fetch.Option, error) {
	opts := []fetch.Option{
		fetch.WithBaseURL(c.BaseURL),
		fetch.WithBasePath(c.BasePath),
		fetch.WithTimeout(c.Timeout),
		fetch.WithSuccessStatus(c.SuccessStatus),
		fetch.WithAlgorithm(c.Algorithm),
		fetch.WithPolicy(c.Policy),
		fetch.WithIncludeURL(c.IncludeURL),
		fetch.WithIncludeUser(c.IncludeUser),
	}

	if len(c.Headers) > 0 {
		header := make(http.Header, len(c.Headers))
		for k, v := range c.Headers {
			header.Set(k, v)
		}
		opts = append(opts, fetch.WithHeader(header))
	}

	if c.RequestID {
		opts = append(opts, fetch.WithRequestID(fetch.RequestIDConfig{}))
	}

	if c.RateLimit.PerSecond > 0 {
		opts = append(opts, fetch.WithRateLimit(rate.Limit(c.RateLimit.PerSecond), c.RateLimit.Burst))
	}

	if logger != nil {
		opts = append(opts, fetch.WithLogger(logger))
	}

	if c.Auth.Token != "" {
		creds, err := c.Credentials(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fetch.WithAuth(creds))
	}

	return opts, nil
}
