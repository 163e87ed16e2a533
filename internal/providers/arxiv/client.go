// Package arxiv implements the provider adapter for the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	sourceName = "arXiv"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
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

// Client implements the providers.Provider contract for arXiv.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var (
	_ providers.Provider      = (*Client)(nil)
	_ providers.TitleLookuper = (*Client)(nil)
)

// New creates a new arXiv client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypeArXiv, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypeArXiv)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search queries arXiv for papers matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	return c.search(ctx, "all:"+quoteQuery(query), limit)
}

// LookupByTitle searches arXiv by title and returns the best match above
// the similarity threshold, or nil when nothing matches.
func (c *Client) LookupByTitle(ctx context.Context, title string, limit int) (*domain.SearchRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	records, err := c.search(ctx, "ti:"+quoteQuery(title), limit)
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypeArXiv }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

func (c *Client) search(ctx context.Context, searchQuery string, limit int) ([]domain.SearchRecord, error) {
	searchURL, err := c.buildSearchURL(searchQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypeArXiv, resp.StatusCode, 1, string(body), nil)
	}

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(feed.Entries))
	for i := range feed.Entries {
		if rec, ok := c.entryToRecord(&feed.Entries[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (c *Client) buildSearchURL(searchQuery string, limit int) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("search_query", searchQuery)
	q.Set("max_results", strconv.Itoa(limit))
	q.Set("sortBy", "relevance")
	q.Set("sortOrder", "descending")
	baseURL.RawQuery = q.Encode()
	return baseURL.String(), nil
}

// entryToRecord converts an arXiv Atom entry to a SearchRecord.
// Malformed entries are skipped, never fatal.
func (c *Client) entryToRecord(entry *Entry) (domain.SearchRecord, bool) {
	title := normalizeWhitespace(entry.Title)
	if title == "" {
		return domain.SearchRecord{}, false
	}

	arxivID := domain.ExtractArxivID(entry.ID)
	if arxivID == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:    title,
		Abstract: normalizeWhitespace(entry.Summary),
		URL:      "https://arxiv.org/abs/" + arxivID,
		DOI:      domain.NormalizeDOI(entry.DOI),
		Source:   domain.SourceTypeArXiv,
		PDFURL:   domain.ArxivPDFURL(arxivID),
		Venue:    normalizeWhitespace(entry.JournalRef),
	}

	if entry.Published != "" {
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			rec.Year = t.Year()
		}
	}

	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	return rec, true
}

// quoteQuery wraps multi-word queries in quotes the arXiv query parser
// understands.
func quoteQuery(q string) string {
	q = strings.TrimSpace(q)
	if strings.ContainsAny(q, " \t") {
		return `"` + q + `"`
	}
	return q
}

// normalizeWhitespace trims and collapses whitespace (arXiv titles and
// abstracts carry embedded newlines).
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
