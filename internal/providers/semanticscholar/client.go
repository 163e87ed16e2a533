// Package semanticscholar implements the provider adapter for the
// Semantic Scholar Graph API.
package semanticscholar

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
	// DefaultBaseURL is the default Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	// APIKeyHeader is the header Semantic Scholar reads the key from.
	APIKeyHeader = "x-api-key"

	sourceName = "Semantic Scholar"

	paperFields = "paperId,externalIds,title,abstract,year,venue,url,citationCount,isOpenAccess,openAccessPdf,authors"
)

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL is the Graph API base URL.
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

// Client implements the providers.Provider contract for Semantic Scholar.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var (
	_ providers.Provider    = (*Client)(nil)
	_ providers.DOILookuper = (*Client)(nil)
)

// New creates a new Semantic Scholar client. An API key in pc raises the
// rate limit the service grants us; without one requests still work.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	var opts []providers.HTTPClientOption
	if pc.APIKey != "" {
		opts = append(opts, providers.WithAPIKey(APIKeyHeader, pc.APIKey))
	}
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeSemanticScholar, pc, logger, opts...),
		logger:     logger.With().Str("source", string(domain.SourceTypeSemanticScholar)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search queries Semantic Scholar for papers matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", paperFields)
	searchURL := c.config.BaseURL + "/paper/search?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var result SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(result.Data))
	for i := range result.Data {
		if rec, ok := paperToRecord(&result.Data[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// LookupByDOI resolves a DOI to a record, or nil when the paper is not
// indexed.
func (c *Client) LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error) {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}

	lookupURL := c.config.BaseURL + "/paper/DOI:" + url.PathEscape(doi) + "?fields=" + url.QueryEscape(paperFields)

	resp, err := c.httpClient.Get(ctx, lookupURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var paper PaperResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&paper); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	rec, ok := paperToRecord(&paper)
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypeSemanticScholar }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	msg := string(body)
	var apiErr ErrorResponse
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Error != "" {
			msg = apiErr.Error
		} else if apiErr.Message != "" {
			msg = apiErr.Message
		}
	}
	return domain.NewExternalAPIError(domain.SourceTypeSemanticScholar, resp.StatusCode, 1, msg, nil)
}

// paperToRecord converts an API paper to a SearchRecord. Papers without a
// title are skipped.
func paperToRecord(p *PaperResult) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:         title,
		Abstract:      strings.TrimSpace(p.Abstract),
		Year:          p.Year,
		URL:           p.URL,
		Source:        domain.SourceTypeSemanticScholar,
		Venue:         strings.TrimSpace(p.Venue),
		CitationCount: p.CitationCount,
	}

	if p.ExternalIDs != nil {
		rec.DOI = domain.NormalizeDOI(p.ExternalIDs.DOI)
		if p.ExternalIDs.ArXiv != "" {
			rec.PDFURL = domain.ArxivPDFURL(p.ExternalIDs.ArXiv)
		}
	}
	if p.OpenAccessPDF != nil && p.OpenAccessPDF.URL != "" {
		rec.PDFURL = p.OpenAccessPDF.URL
	}
	if rec.URL == "" && p.PaperID != "" {
		rec.URL = "https://www.semanticscholar.org/paper/" + p.PaperID
	}

	for _, a := range p.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	return rec, true
}
