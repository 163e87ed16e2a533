package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// defaultUserAgent identifies the service to provider APIs. Several of
// them (NCBI in particular) require a descriptive User-Agent.
const defaultUserAgent = "literature-acquisition-service/1.0 (mailto:ops@openlit.dev)"

// HTTPClient bundles the per-provider fetch stack: an http.Client with
// the provider's timeout, a RateGate, a HealthTracker, and the retry
// Executor. One instance is owned by exactly one adapter; the gate and
// tracker are mutated only through that adapter's calls.
type HTTPClient struct {
	client   *http.Client
	executor *Executor
	gate     *RateGate
	health   *HealthTracker

	userAgent    string
	apiKey       string
	apiKeyHeader string
}

// HTTPClientOption adjusts optional client behavior.
type HTTPClientOption func(*HTTPClient)

// WithAPIKey configures an API key sent on every request in the given
// header.
func WithAPIKey(header, key string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.apiKeyHeader = header
		c.apiKey = key
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// NewHTTPClient creates the fetch stack for one provider.
func NewHTTPClient(source domain.SourceType, cfg config.ProviderConfig, logger zerolog.Logger, opts ...HTTPClientOption) *HTTPClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	gate := NewRateGate(cfg.MinInterval)
	health := NewHealthTracker(source, gate)

	c := &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		gate:      gate,
		health:    health,
		userAgent: defaultUserAgent,
	}
	c.executor = NewExecutor(source, cfg, gate, health, logger)

	for _, opt := range opts {
		opt(c)
	}
	if cfg.APIKey != "" && c.apiKey == "" {
		c.apiKey = cfg.APIKey
	}
	return c
}

// Get issues a GET for the URL through the retry executor. The caller
// owns the response body.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.executor.Execute(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return c.client.Do(req)
	})
}

// Do executes an arbitrary request through the retry executor. The
// request must be retryable (GetBody set when it has a body).
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.executor.Execute(req.Context(), func(ctx context.Context) (*http.Response, error) {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}
		c.setHeaders(r)
		return c.client.Do(r)
	})
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" && c.apiKeyHeader != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}
}

// Health returns the provider's health tracker.
func (c *HTTPClient) Health() *HealthTracker { return c.health }

// Gate returns the provider's rate gate.
func (c *HTTPClient) Gate() *RateGate { return c.gate }
