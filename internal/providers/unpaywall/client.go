// Package unpaywall implements the provider adapter for the Unpaywall
// open access lookup API. Every request carries the configured contact
// email, which the service requires.
package unpaywall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

const (
	// DefaultBaseURL is the default Unpaywall API base URL.
	DefaultBaseURL = "https://api.unpaywall.org/v2"

	// DefaultMaxResults is the default maximum results per request. The
	// search endpoint returns at most 50 per page.
	DefaultMaxResults = 50

	sourceName = "Unpaywall"
)

// Config holds configuration for the Unpaywall client.
type Config struct {
	// BaseURL is the Unpaywall API base URL.
	BaseURL string

	// Email is the required contact address sent with every request.
	Email string

	// MaxResults is the maximum results to return per search request.
	MaxResults int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxResults == 0 || c.MaxResults > DefaultMaxResults {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the providers.Provider contract for Unpaywall.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var (
	_ providers.Provider    = (*Client)(nil)
	_ providers.DOILookuper = (*Client)(nil)
)

// New creates a new Unpaywall client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeUnpaywall, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypeUnpaywall)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search queries the Unpaywall title search endpoint.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("email", c.config.Email)
	searchURL := c.config.BaseURL + "/search?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeUnpaywall, resp.StatusCode, 1, string(body), nil)
	}

	var result SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(result.Results))
	for i := range result.Results {
		if len(records) >= limit {
			break
		}
		if rec, ok := objectToRecord(&result.Results[i].Response); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// LookupByDOI resolves a DOI to its Unpaywall record, or nil when the DOI
// is unknown.
func (c *Client) LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error) {
	obj, err := c.lookup(ctx, doi)
	if err != nil || obj == nil {
		return nil, err
	}
	rec, ok := objectToRecord(obj)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// BestPDFURL returns the best open access PDF URL for a DOI, or "" when
// the work is not OA or unknown.
func (c *Client) BestPDFURL(ctx context.Context, doi string) (string, error) {
	obj, err := c.lookup(ctx, doi)
	if err != nil || obj == nil {
		return "", err
	}
	if !obj.IsOA {
		return "", nil
	}
	return obj.PDFURL(), nil
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypeUnpaywall }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled and has a contact email.
func (c *Client) Enabled() bool { return c.config.Enabled && c.config.Email != "" }

func (c *Client) lookup(ctx context.Context, doi string) (*DOIObject, error) {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}

	lookupURL := c.config.BaseURL + "/" + url.PathEscape(doi) + "?email=" + url.QueryEscape(c.config.Email)

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
		return nil, domain.NewExternalAPIError(domain.SourceTypeUnpaywall, resp.StatusCode, 1, string(body), nil)
	}

	var obj DOIObject
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&obj); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &obj, nil
}

// objectToRecord converts a DOI object to a SearchRecord. Objects without
// a title are skipped.
func objectToRecord(obj *DOIObject) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(obj.Title)
	if title == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:  title,
		Year:   obj.Year,
		DOI:    domain.NormalizeDOI(obj.DOI),
		Source: domain.SourceTypeUnpaywall,
		Venue:  strings.TrimSpace(obj.JournalName),
		URL:    obj.DOIURL,
	}

	if obj.IsOA {
		rec.PDFURL = obj.PDFURL()
	}
	if rec.URL == "" && rec.DOI != "" {
		rec.URL = "https://doi.org/" + rec.DOI
	}

	for _, a := range obj.ZAuthors {
		name := a.Name
		if name == "" {
			name = strings.TrimSpace(a.Given + " " + a.Family)
		}
		if name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	return rec, true
}
