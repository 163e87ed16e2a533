// Package europepmc implements the provider adapter for the Europe PMC
// REST API.
package europepmc

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
	// DefaultBaseURL is the default Europe PMC REST base URL.
	DefaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	sourceName = "Europe PMC"
)

// Config holds configuration for the Europe PMC client.
type Config struct {
	// BaseURL is the Europe PMC REST base URL.
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

// Client implements the providers.Provider contract for Europe PMC.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var (
	_ providers.Provider    = (*Client)(nil)
	_ providers.DOILookuper = (*Client)(nil)
)

// New creates a new Europe PMC client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeEuropePMC, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypeEuropePMC)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search queries Europe PMC for articles matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	records, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LookupByDOI resolves a DOI via a DOI-scoped search, or nil on a miss.
func (c *Client) LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error) {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}

	records, err := c.search(ctx, `DOI:"`+doi+`"`, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypeEuropePMC }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

func (c *Client) search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("format", "json")
	q.Set("resultType", "core")
	q.Set("pageSize", strconv.Itoa(limit))
	searchURL := c.config.BaseURL + "/search?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeEuropePMC, resp.StatusCode, 1, string(body), nil)
	}

	var result SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(result.ResultList.Result))
	for i := range result.ResultList.Result {
		if rec, ok := resultToRecord(&result.ResultList.Result[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// resultToRecord converts a Europe PMC result to a SearchRecord. Results
// without a title are skipped.
func resultToRecord(r *Result) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:         title,
		Abstract:      strings.TrimSpace(r.AbstractText),
		DOI:           domain.NormalizeDOI(r.DOI),
		Source:        domain.SourceTypeEuropePMC,
		CitationCount: r.CitedByCount,
	}

	if y, err := strconv.Atoi(strings.TrimSpace(r.PubYear)); err == nil {
		rec.Year = y
	}

	rec.Venue = strings.TrimSpace(r.JournalTitle)
	if rec.Venue == "" && r.JournalInfo != nil {
		rec.Venue = strings.TrimSpace(r.JournalInfo.Journal.Title)
	}

	if r.AuthorList != nil {
		for _, a := range r.AuthorList.Author {
			if name := strings.TrimSpace(a.FullName); name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
	}
	if len(rec.Authors) == 0 && r.AuthorString != "" {
		for _, name := range strings.Split(r.AuthorString, ",") {
			name = strings.TrimSpace(strings.TrimSuffix(name, "."))
			if name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}
	}

	switch {
	case r.PMCID != "":
		rec.URL = "https://europepmc.org/article/PMC/" + strings.TrimPrefix(r.PMCID, "PMC")
	case r.PMID != "":
		rec.URL = "https://europepmc.org/article/MED/" + r.PMID
	case rec.DOI != "":
		rec.URL = "https://doi.org/" + rec.DOI
	}

	if r.FullTextURLList != nil {
		for _, ft := range r.FullTextURLList.FullTextURL {
			if strings.EqualFold(ft.DocumentStyle, "pdf") && ft.URL != "" {
				rec.PDFURL = ft.URL
				break
			}
		}
	}
	if rec.PDFURL == "" && r.PMCID != "" {
		rec.PDFURL = "https://www.ncbi.nlm.nih.gov/pmc/articles/" + r.PMCID + "/pdf/"
	}

	return rec, true
}
