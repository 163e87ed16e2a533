// Package openalex implements the provider adapter for the OpenAlex API.
package openalex

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
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	sourceName = "OpenAlex"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
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

// Client implements the providers.Provider contract for OpenAlex.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var (
	_ providers.Provider    = (*Client)(nil)
	_ providers.DOILookuper = (*Client)(nil)
)

// New creates a new OpenAlex client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeOpenAlex, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypeOpenAlex)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search queries OpenAlex works matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("search", query)
	q.Set("per-page", strconv.Itoa(limit))
	searchURL := c.config.BaseURL + "/works?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeOpenAlex, resp.StatusCode, 1, string(body), nil)
	}

	var result SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(result.Results))
	for i := range result.Results {
		if rec, ok := workToRecord(&result.Results[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// LookupByDOI resolves a DOI to a work record, or nil on a miss.
func (c *Client) LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error) {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}

	lookupURL := c.config.BaseURL + "/works/https://doi.org/" + doi

	resp, err := c.httpClient.Get(ctx, lookupURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeOpenAlex, resp.StatusCode, 1, string(body), nil)
	}

	var work Work
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&work); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	rec, ok := workToRecord(&work)
	if !ok {
		return nil, nil
	}
	return &rec, nil
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypeOpenAlex }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

// workToRecord converts an OpenAlex work to a SearchRecord. Works without
// a title are skipped.
func workToRecord(w *Work) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		title = strings.TrimSpace(w.DisplayName)
	}
	if title == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:         title,
		Abstract:      w.Abstract(),
		Year:          w.PublicationYear,
		DOI:           domain.NormalizeDOI(w.DOI),
		Source:        domain.SourceTypeOpenAlex,
		CitationCount: w.CitedByCount,
	}

	if w.PrimaryLocation != nil {
		rec.URL = w.PrimaryLocation.LandingPageURL
		rec.PDFURL = w.PrimaryLocation.PDFURL
		if w.PrimaryLocation.Source != nil {
			rec.Venue = strings.TrimSpace(w.PrimaryLocation.Source.DisplayName)
		}
	}
	// Prefer the OA URL over the publisher's PDF link.
	if w.OpenAccess != nil && w.OpenAccess.OAURL != "" {
		rec.PDFURL = w.OpenAccess.OAURL
	}

	if rec.URL == "" {
		switch {
		case rec.DOI != "":
			rec.URL = "https://doi.org/" + rec.DOI
		case w.ID != "":
			rec.URL = w.ID
		}
	}

	for _, a := range w.Authorships {
		if name := strings.TrimSpace(a.Author.DisplayName); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	return rec, true
}
