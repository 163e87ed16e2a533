// Package crossref implements the provider adapter for the CrossRef REST API.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

const (
	// DefaultBaseURL is the default CrossRef API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	sourceName = "CrossRef"
)

// CrossRef abstracts arrive as JATS XML fragments.
var jatsTagRe = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// Config holds configuration for the CrossRef client.
type Config struct {
	// BaseURL is the CrossRef API base URL.
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

// Client implements the providers.Provider contract for CrossRef.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var (
	_ providers.Provider    = (*Client)(nil)
	_ providers.DOILookuper = (*Client)(nil)
)

// New creates a new CrossRef client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeCrossRef, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypeCrossRef)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search queries CrossRef works matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("rows", strconv.Itoa(limit))
	searchURL := c.config.BaseURL + "/works?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeCrossRef, resp.StatusCode, 1, string(body), nil)
	}

	var result SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(result.Message.Items))
	for i := range result.Message.Items {
		if rec, ok := workToRecord(&result.Message.Items[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// LookupByDOI resolves a DOI to a work record, or nil when CrossRef does
// not know the DOI.
func (c *Client) LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error) {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}

	lookupURL := c.config.BaseURL + "/works/" + url.PathEscape(doi)

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
		return nil, domain.NewExternalAPIError(domain.SourceTypeCrossRef, resp.StatusCode, 1, string(body), nil)
	}

	var result WorkResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	rec, ok := workToRecord(&result.Message)
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypeCrossRef }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

// workToRecord converts a CrossRef work to a SearchRecord. Works without
// a title are skipped.
func workToRecord(w *Work) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(w.Title.First())
	if title == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:         title,
		Abstract:      stripJATS(w.Abstract),
		URL:           w.URL,
		DOI:           domain.NormalizeDOI(w.DOI),
		Source:        domain.SourceTypeCrossRef,
		Venue:         strings.TrimSpace(w.ContainerTitle.First()),
		CitationCount: w.CitedByCount,
	}

	for _, d := range []*DateParts{w.Published, w.PublishedPrint, w.PublishedOther, w.Issued} {
		if y := d.Year(); y != 0 {
			rec.Year = y
			break
		}
	}

	for _, link := range w.Link {
		if link.ContentType == "application/pdf" && link.URL != "" {
			rec.PDFURL = link.URL
			break
		}
	}

	for _, a := range w.Author {
		if name := authorName(a); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	if rec.URL == "" && rec.DOI != "" {
		rec.URL = "https://doi.org/" + rec.DOI
	}

	return rec, true
}

func authorName(a Author) string {
	if a.Name != "" {
		return strings.TrimSpace(a.Name)
	}
	return strings.TrimSpace(a.Given + " " + a.Family)
}

func stripJATS(s string) string {
	s = jatsTagRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
