// Package biorxiv implements the provider adapter for the bioRxiv and
// medRxiv preprint API.
//
// The API has no keyword endpoint. Search enumerates the recent
// submission window page by page and filters titles by substring, which
// keeps it useful for preprint lookups while staying within the
// published interface.
package biorxiv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

const (
	// DefaultBaseURL is the default preprint API base URL.
	DefaultBaseURL = "https://api.biorxiv.org"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	// searchWindow is how far back the enumeration reaches.
	searchWindow = 365 * 24 * time.Hour

	// maxSearchPages bounds the enumeration; each page holds up to 100
	// preprints.
	maxSearchPages = 5

	sourceName = "bioRxiv"
)

var servers = []string{"biorxiv", "medrxiv"}

// Config holds configuration for the bioRxiv client.
type Config struct {
	// BaseURL is the preprint API base URL.
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

// Client implements the providers.Provider contract for bioRxiv and
// medRxiv.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
	now        func() time.Time
}

var (
	_ providers.Provider      = (*Client)(nil)
	_ providers.DOILookuper   = (*Client)(nil)
	_ providers.TitleLookuper = (*Client)(nil)
)

// New creates a new bioRxiv client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeBioRxiv, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypeBioRxiv)).Logger(),
		now:        time.Now,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger, now: time.Now}
}

// Search enumerates recent preprints on both servers and keeps the ones
// whose title contains the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	to := c.now()
	from := to.Add(-searchWindow)

	var records []domain.SearchRecord
	for _, server := range servers {
		found, err := c.enumerate(ctx, server, from, to, needle, limit-len(records))
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
		if len(records) >= limit {
			break
		}
	}
	return records, nil
}

// LookupByDOI resolves a preprint DOI on either server, or nil on a miss.
func (c *Client) LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error) {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil, nil
	}

	for _, server := range servers {
		detailsURL := fmt.Sprintf("%s/details/%s/%s/na/json", c.config.BaseURL, server, doi)
		preprints, err := c.fetch(ctx, detailsURL)
		if err != nil {
			return nil, err
		}
		if len(preprints) == 0 {
			continue
		}
		// The collection lists versions oldest first.
		rec, ok := preprintToRecord(&preprints[len(preprints)-1], server)
		if !ok {
			continue
		}
		return &rec, nil
	}
	return nil, nil
}

// LookupByTitle searches recent preprints and returns the best match
// above the similarity threshold, or nil.
func (c *Client) LookupByTitle(ctx context.Context, title string, limit int) (*domain.SearchRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	records, err := c.Search(ctx, title, limit)
	if err != nil {
		return nil, err
	}

	var best *domain.SearchRecord
	bestScore := 0.0
	for i := range records {
		score := providers.TitleSimilarity(title, records[i].Title)
		if score > bestScore {
			best = &records[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < providers.TitleMatchThreshold {
		return nil, nil
	}
	return best, nil
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypeBioRxiv }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

func (c *Client) enumerate(ctx context.Context, server string, from, to time.Time, needle string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	var records []domain.SearchRecord
	for page := 0; page < maxSearchPages; page++ {
		pageURL := fmt.Sprintf("%s/details/%s/%s/%s/%d/json",
			c.config.BaseURL, server,
			from.Format("2006-01-02"), to.Format("2006-01-02"),
			page*100)

		preprints, err := c.fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if len(preprints) == 0 {
			break
		}

		for i := range preprints {
			if !strings.Contains(strings.ToLower(preprints[i].Title), needle) {
				continue
			}
			if rec, ok := preprintToRecord(&preprints[i], server); ok {
				records = append(records, rec)
				if len(records) >= limit {
					return records, nil
				}
			}
		}
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context, apiURL string) ([]Preprint, error) {
	resp, err := c.httpClient.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeBioRxiv, resp.StatusCode, 1, string(body), nil)
	}

	var result APIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	for _, m := range result.Messages {
		if strings.EqualFold(m.Status, "no posts found") {
			return nil, nil
		}
	}
	return result.Collection, nil
}

// preprintToRecord converts a preprint version to a SearchRecord.
// Preprints without a title or DOI are skipped.
func preprintToRecord(p *Preprint, server string) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(p.Title)
	doi := domain.NormalizeDOI(p.DOI)
	if title == "" || doi == "" {
		return domain.SearchRecord{}, false
	}

	source := domain.SourceTypeBioRxiv
	if str := strings.ToLower(strings.TrimSpace(p.Server)); str != "" {
		server = str
	}
	if server == "medrxiv" {
		source = domain.SourceTypeMedRxiv
	}

	rec := domain.SearchRecord{
		Title:    title,
		Abstract: strings.TrimSpace(p.Abstract),
		DOI:      doi,
		Source:   source,
		Venue:    strings.TrimSpace(p.Category),
		URL:      fmt.Sprintf("https://www.%s.org/content/%s", server, doi),
		PDFURL:   fmt.Sprintf("https://www.%s.org/content/%s.full.pdf", server, doi),
	}
	if v := strings.TrimSpace(p.Version); v != "" {
		rec.URL += "v" + v
	}

	if len(p.Date) >= 4 {
		if y, err := strconv.Atoi(p.Date[:4]); err == nil {
			rec.Year = y
		}
	}

	for _, name := range strings.Split(p.Authors, ";") {
		if name = strings.TrimSpace(name); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	return rec, true
}
