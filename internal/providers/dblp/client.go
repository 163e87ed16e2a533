// Package dblp implements the provider adapter for the DBLP publication
// search API.
package dblp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

const (
	// DefaultBaseURL is the default DBLP API base URL.
	DefaultBaseURL = "https://dblp.org/search/publ/api"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	sourceName = "DBLP"
)

// Config holds configuration for the DBLP client.
type Config struct {
	// BaseURL is the DBLP publication search URL.
	BaseURL string

	// MaxResults is the maximum results to return per search request.
	MaxResults int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the providers.Provider contract for DBLP.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var _ providers.Provider = (*Client)(nil)

// New creates a new DBLP client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeDBLP, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypeDBLP)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search queries DBLP publications matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("h", strconv.Itoa(limit))
	searchURL := c.config.BaseURL + "?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeDBLP, resp.StatusCode, 1, string(body), nil)
	}

	var result SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(result.Result.Hits.Hit))
	for i := range result.Result.Hits.Hit {
		if rec, ok := hitToRecord(&result.Result.Hits.Hit[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// HealthCheck reports whether the provider looks usable.
func (c *Client) HealthCheck(_ context.Context) bool {
	return c.httpClient.Health().Healthy()
}

// HealthStatus returns the provider's health snapshot.
func (c *Client) HealthStatus() providers.HealthStatus {
	return c.httpClient.Health().Status()
}

// Source returns the provider tag.
func (c *Client) Source() domain.SourceType { return domain.SourceTypeDBLP }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

// hitToRecord converts a DBLP hit to a SearchRecord. Hits without a title
// are skipped.
func hitToRecord(h *Hit) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h.Info.Title), "."))
	if title == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:  title,
		DOI:    domain.NormalizeDOI(h.Info.DOI),
		Source: domain.SourceTypeDBLP,
		Venue:  strings.TrimSpace(h.Info.Venue.First()),
	}

	if y, err := strconv.Atoi(strings.TrimSpace(h.Info.Year)); err == nil {
		rec.Year = y
	}

	if h.Info.Authors != nil {
		for _, a := range h.Info.Authors.Author {
			if name := strings.TrimSpace(a.Text); name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
	}

	// The ee list carries electronic-edition URLs. Prefer an explicit PDF,
	// else fall back to the first URL for the record link.
	for _, ee := range h.Info.EE {
		if strings.HasSuffix(strings.ToLower(ee), ".pdf") {
			rec.PDFURL = domain.NormalizeArxivURL(ee)
			break
		}
	}

	rec.URL = h.Info.URL
	if rec.URL == "" {
		rec.URL = h.Info.EE.First()
	}
	if id := domain.ExtractArxivID(h.Info.EE.First()); id != "" && rec.PDFURL == "" {
		rec.PDFURL = domain.ArxivPDFURL(id)
	}

	return rec, true
}
