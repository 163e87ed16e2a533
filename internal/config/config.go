// Package config provides configuration management for the literature
// acquisition service.
//
// All options are recognized from the environment under the LITERATURE_
// prefix (for example LITERATURE_MAX_PARALLEL_DOWNLOADS), with two
// unprefixed secrets: UNPAYWALL_EMAIL and SEMANTICSCHOLAR_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// RateLimitStrategy selects how a provider paces itself after a 429.
type RateLimitStrategy string

const (
	// StrategyRetryAfter honors the Retry-After header, falling back to
	// exponential backoff when the header is absent.
	StrategyRetryAfter RateLimitStrategy = "retry-after"
	// StrategyExponentialBackoff always uses exponential backoff.
	StrategyExponentialBackoff RateLimitStrategy = "exponential-backoff"
)

// Config holds all configuration for the service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Literature contains search and acquisition settings.
	Literature LiteratureConfig `mapstructure:"literature"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// LiteratureConfig holds the options of the search and acquisition core.
type LiteratureConfig struct {
	// DefaultLimit is the default per-source result cap.
	DefaultLimit int `mapstructure:"default_limit"`
	// MaxResults is the global result cap across sources.
	MaxResults int `mapstructure:"max_results"`
	// Timeout is the API request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// PDFDownloadTimeout is the PDF request timeout.
	PDFDownloadTimeout time.Duration `mapstructure:"pdf_download_timeout"`
	// RetryAttempts is the provider-call retry budget.
	RetryAttempts int `mapstructure:"retry_attempts"`
	// RetryDelay is the base delay for provider-call backoff.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// DownloadRetryAttempts is the downloader retry budget.
	DownloadRetryAttempts int `mapstructure:"download_retry_attempts"`
	// DownloadRetryDelay is the base delay for downloader backoff.
	DownloadRetryDelay time.Duration `mapstructure:"download_retry_delay"`
	// MaxParallelDownloads is the download worker pool size.
	MaxParallelDownloads int `mapstructure:"max_parallel_downloads"`
	// MaxURLAttemptsPerPDF bounds the total URL candidates tried per record.
	MaxURLAttemptsPerPDF int `mapstructure:"max_url_attempts_per_pdf"`
	// MaxFallbackStrategies bounds the fallback-family attempts per record.
	MaxFallbackStrategies int `mapstructure:"max_fallback_strategies"`
	// Sources is the comma-separated list of enabled providers.
	Sources []string `mapstructure:"sources"`
	// UseUnpaywall enables the Unpaywall open-access fallback.
	UseUnpaywall bool `mapstructure:"use_unpaywall"`
	// UnpaywallEmail is the Unpaywall contact email (UNPAYWALL_EMAIL).
	UnpaywallEmail string `mapstructure:"-"`
	// UseBrowserUserAgent enables browser User-Agent rotation.
	UseBrowserUserAgent bool `mapstructure:"use_browser_user_agent"`
	// ArxivDelay is the minimum interval between arXiv requests.
	ArxivDelay time.Duration `mapstructure:"arxiv_delay"`
	// SemanticScholarDelay is the minimum interval between Semantic Scholar requests.
	SemanticScholarDelay time.Duration `mapstructure:"semanticscholar_delay"`
	// SemanticScholarAPIKey is the optional API key (SEMANTICSCHOLAR_API_KEY).
	SemanticScholarAPIKey string `mapstructure:"-"`
	// DownloadDir is the directory PDF artifacts are written to.
	DownloadDir string `mapstructure:"download_dir"`
}

// ProviderConfig holds the per-provider settings the fetch layer binds a
// provider's retry executor and rate gate to.
type ProviderConfig struct {
	// MinInterval is the minimum interval between requests to this provider.
	MinInterval time.Duration
	// MaxRetries is the retry budget for one logical call.
	MaxRetries int
	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
	// RequestTimeout overrides the default request timeout when non-zero.
	RequestTimeout time.Duration
	// RateLimitStrategy selects the 429 handling strategy.
	RateLimitStrategy RateLimitStrategy
	// HealthCheckEnabled enables active health checks for this provider.
	HealthCheckEnabled bool
	// APIKey is an optional provider API key.
	APIKey string
}

// defaultMinIntervals are the per-provider pacing defaults, reflecting
// each API's published guidance.
var defaultMinIntervals = map[domain.SourceType]time.Duration{
	domain.SourceTypeArXiv:           3 * time.Second,
	domain.SourceTypeSemanticScholar: time.Second,
	domain.SourceTypePubMed:          350 * time.Millisecond,
	domain.SourceTypeEuropePMC:       200 * time.Millisecond,
	domain.SourceTypeCrossRef:        100 * time.Millisecond,
	domain.SourceTypeOpenAlex:        100 * time.Millisecond,
	domain.SourceTypeDBLP:            time.Second,
	domain.SourceTypeBioRxiv:         200 * time.Millisecond,
	domain.SourceTypeMedRxiv:         200 * time.Millisecond,
	domain.SourceTypeUnpaywall:       100 * time.Millisecond,
}

// ProviderSettings returns the configuration for one known provider tag.
// Provider configuration is statically enumerated: new providers require
// a new tag and an entry here, not dynamic key lookup.
func (c *LiteratureConfig) ProviderSettings(tag domain.SourceType) ProviderConfig {
	pc := ProviderConfig{
		MinInterval:        defaultMinIntervals[tag],
		MaxRetries:         c.RetryAttempts,
		RetryDelay:         c.RetryDelay,
		RequestTimeout:     c.Timeout,
		RateLimitStrategy:  StrategyRetryAfter,
		HealthCheckEnabled: true,
	}

	switch tag {
	case domain.SourceTypeArXiv:
		if c.ArxivDelay > 0 {
			pc.MinInterval = c.ArxivDelay
		}
		// arXiv does not emit Retry-After; back off blindly.
		pc.RateLimitStrategy = StrategyExponentialBackoff
	case domain.SourceTypeSemanticScholar:
		if c.SemanticScholarDelay > 0 {
			pc.MinInterval = c.SemanticScholarDelay
		}
		pc.APIKey = c.SemanticScholarAPIKey
	case domain.SourceTypeUnpaywall:
		pc.MaxRetries = 3
	}

	return pc
}

// SourceEnabled reports whether a provider tag appears in the configured
// source list. An empty list enables every known provider.
func (c *LiteratureConfig) SourceEnabled(tag domain.SourceType) bool {
	if len(c.Sources) == 0 {
		return true
	}
	for _, s := range c.Sources {
		if strings.EqualFold(strings.TrimSpace(s), string(tag)) {
			return true
		}
	}
	return false
}

// emailValidator checks the Unpaywall contact address.
var emailValidator = validator.New()

// UnpaywallEnabled reports whether the Unpaywall fallback may be used:
// the toggle must be on and the contact email must be well-formed.
// A missing or malformed email disables Unpaywall rather than failing
// startup; the orchestrator logs the condition once.
func (c *LiteratureConfig) UnpaywallEnabled() bool {
	if !c.UseUnpaywall {
		return false
	}
	return emailValidator.Var(c.UnpaywallEmail, "required,email") == nil
}

// Load loads configuration from environment variables and optional config
// files.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LITERATURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLiteratureKeys(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/literature-acquisition-service")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Sources may arrive as a single comma-separated string from the
	// environment.
	if len(cfg.Literature.Sources) == 1 && strings.Contains(cfg.Literature.Sources[0], ",") {
		cfg.Literature.Sources = strings.Split(cfg.Literature.Sources[0], ",")
	}

	// Secrets are loaded exclusively from unprefixed environment variables.
	cfg.Literature.UnpaywallEmail = os.Getenv("UNPAYWALL_EMAIL")
	cfg.Literature.SemanticScholarAPIKey = os.Getenv("SEMANTICSCHOLAR_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindLiteratureKeys binds the documented LITERATURE_* environment keys.
// AutomaticEnv only resolves keys it has seen, so each documented option
// is bound explicitly.
func bindLiteratureKeys(v *viper.Viper) {
	for _, key := range []string{
		"literature.default_limit",
		"literature.max_results",
		"literature.timeout",
		"literature.pdf_download_timeout",
		"literature.retry_attempts",
		"literature.retry_delay",
		"literature.download_retry_attempts",
		"literature.download_retry_delay",
		"literature.max_parallel_downloads",
		"literature.max_url_attempts_per_pdf",
		"literature.max_fallback_strategies",
		"literature.sources",
		"literature.use_unpaywall",
		"literature.use_browser_user_agent",
		"literature.arxiv_delay",
		"literature.semanticscholar_delay",
		"literature.download_dir",
	} {
		// Bind both LITERATURE_LITERATURE_* (prefix+path) and the
		// documented flat LITERATURE_* form.
		flat := "LITERATURE_" + strings.ToUpper(strings.TrimPrefix(key, "literature."))
		_ = v.BindEnv(key, flat)
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Literature defaults
	v.SetDefault("literature.default_limit", 20)
	v.SetDefault("literature.max_results", 100)
	v.SetDefault("literature.timeout", "30s")
	v.SetDefault("literature.pdf_download_timeout", "60s")
	v.SetDefault("literature.retry_attempts", 3)
	v.SetDefault("literature.retry_delay", "1s")
	v.SetDefault("literature.download_retry_attempts", 2)
	v.SetDefault("literature.download_retry_delay", "2s")
	v.SetDefault("literature.max_parallel_downloads", 4)
	v.SetDefault("literature.max_url_attempts_per_pdf", 12)
	v.SetDefault("literature.max_fallback_strategies", 3)
	v.SetDefault("literature.sources", []string{})
	v.SetDefault("literature.use_unpaywall", true)
	v.SetDefault("literature.use_browser_user_agent", true)
	v.SetDefault("literature.arxiv_delay", "3s")
	v.SetDefault("literature.semanticscholar_delay", "1s")
	v.SetDefault("literature.download_dir", "downloads")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return &domain.ConfigError{Option: "server.http_port", Message: fmt.Sprintf("invalid port %d", c.Server.HTTPPort)}
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return &domain.ConfigError{Option: "logging.level", Message: "unknown level " + c.Logging.Level}
	}

	lit := &c.Literature
	if lit.DefaultLimit <= 0 {
		return &domain.ConfigError{Option: "LITERATURE_DEFAULT_LIMIT", Message: "must be positive"}
	}
	if lit.MaxResults < lit.DefaultLimit {
		return &domain.ConfigError{Option: "LITERATURE_MAX_RESULTS", Message: "must be >= default limit"}
	}
	if lit.RetryAttempts < 1 {
		return &domain.ConfigError{Option: "LITERATURE_RETRY_ATTEMPTS", Message: "must be at least 1"}
	}
	if lit.MaxParallelDownloads < 1 {
		return &domain.ConfigError{Option: "LITERATURE_MAX_PARALLEL_DOWNLOADS", Message: "must be at least 1"}
	}
	if lit.MaxURLAttemptsPerPDF < 1 {
		return &domain.ConfigError{Option: "LITERATURE_MAX_URL_ATTEMPTS_PER_PDF", Message: "must be at least 1"}
	}
	if lit.MaxFallbackStrategies < 0 {
		return &domain.ConfigError{Option: "LITERATURE_MAX_FALLBACK_STRATEGIES", Message: "must not be negative"}
	}
	if lit.DownloadDir == "" {
		return &domain.ConfigError{Option: "LITERATURE_DOWNLOAD_DIR", Message: "must not be empty"}
	}
	for _, s := range lit.Sources {
		tag := domain.SourceType(strings.ToLower(strings.TrimSpace(s)))
		if !domain.IsKnownSourceType(tag) {
			return &domain.ConfigError{Option: "LITERATURE_SOURCES", Message: "unknown provider tag " + s}
		}
	}

	return nil
}
