// Package pubmed implements the provider adapter for the NCBI E-utilities,
// using the two-call ESearch then EFetch protocol.
package pubmed

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the default E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	sourceName = "PubMed"
)

var yearRe = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// Config holds configuration for the PubMed client.
type Config struct {
	// BaseURL is the E-utilities base URL.
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

// Client implements the providers.Provider contract for PubMed.
type Client struct {
	config     Config
	httpClient *providers.HTTPClient
	logger     zerolog.Logger
}

var _ providers.Provider = (*Client)(nil)

// New creates a new PubMed client.
func New(cfg Config, pc config.ProviderConfig, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: providers.NewHTTPClient(domain.SourceTypePubMed, pc, logger),
		logger:     logger.With().Str("source", string(domain.SourceTypePubMed)).Logger(),
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client, for tests.
func NewWithHTTPClient(cfg Config, httpClient *providers.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient, logger: logger}
}

// Search runs an ESearch for matching PMIDs and then an EFetch for the
// full records.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	ids, err := c.searchIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return c.fetchArticles(ctx, ids)
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
func (c *Client) Source() domain.SourceType { return domain.SourceTypePubMed }

// Name returns the human-readable name for this source.
func (c *Client) Name() string { return sourceName }

// Enabled returns whether this source is enabled.
func (c *Client) Enabled() bool { return c.config.Enabled }

func (c *Client) searchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", query)
	q.Set("retmax", strconv.Itoa(limit))
	q.Set("retmode", "xml")
	searchURL := c.config.BaseURL + "/esearch.fcgi?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("executing esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypePubMed, resp.StatusCode, 1, string(body), nil)
	}

	var result ESearchResult
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding esearch response: %w", err)
	}
	return result.IDList, nil
}

func (c *Client) fetchArticles(ctx context.Context, ids []string) ([]domain.SearchRecord, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	fetchURL := c.config.BaseURL + "/efetch.fcgi?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, fetchURL)
	if err != nil {
		return nil, fmt.Errorf("executing efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(domain.SourceTypePubMed, resp.StatusCode, 1, string(body), nil)
	}

	var set ArticleSet
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 50<<20)).Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding efetch response: %w", err)
	}

	records := make([]domain.SearchRecord, 0, len(set.Articles))
	for i := range set.Articles {
		if rec, ok := articleToRecord(&set.Articles[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// articleToRecord converts a fetched article to a SearchRecord. Articles
// without a title are skipped.
func articleToRecord(a *PubmedArticle) (domain.SearchRecord, bool) {
	title := strings.TrimSpace(a.Citation.Article.Title)
	if title == "" {
		return domain.SearchRecord{}, false
	}

	rec := domain.SearchRecord{
		Title:    title,
		Abstract: strings.TrimSpace(strings.Join(a.Citation.Article.AbstractText, " ")),
		Source:   domain.SourceTypePubMed,
		Venue:    strings.TrimSpace(a.Citation.Article.Journal.Title),
	}

	if pmid := strings.TrimSpace(a.Citation.PMID); pmid != "" {
		rec.URL = "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
	}

	date := a.Citation.Article.Journal.Issue
	if y, err := strconv.Atoi(strings.TrimSpace(date.Year)); err == nil {
		rec.Year = y
	} else if m := yearRe.FindString(date.MedlineDate); m != "" {
		rec.Year, _ = strconv.Atoi(m)
	}

	for _, id := range a.ArticleIDs {
		value := strings.TrimSpace(id.Value)
		switch strings.ToLower(id.Type) {
		case "doi":
			rec.DOI = domain.NormalizeDOI(value)
		case "pmc":
			pmc := strings.TrimPrefix(value, "PMC")
			if pmc != "" {
				rec.PDFURL = "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC" + pmc + "/pdf/"
			}
		}
	}

	for _, au := range a.Citation.Article.AuthorList.Authors {
		name := authorName(au)
		if name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	return rec, true
}

func authorName(a Author) string {
	if a.CollectiveName != "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	name := strings.TrimSpace(a.ForeName + " " + a.LastName)
	return name
}
