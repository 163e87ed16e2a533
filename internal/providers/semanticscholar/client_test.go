package semanticscholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

const searchFixture = `{
  "total": 2,
  "data": [
    {
      "paperId": "abc123",
      "externalIds": {"DOI": "https://doi.org/10.1234/example", "ArXiv": "2401.12345"},
      "title": "Scaling Laws for Neural Language Models",
      "abstract": "We study scaling.",
      "year": 2020,
      "venue": "NeurIPS",
      "url": "https://www.semanticscholar.org/paper/abc123",
      "citationCount": 4200,
      "isOpenAccess": true,
      "openAccessPdf": {"url": "https://host.example/scaling.pdf", "status": "GREEN"},
      "authors": [{"authorId": "1", "name": "Jared Kaplan"}, {"authorId": "2", "name": "Sam McCandlish"}]
    },
    {
      "paperId": "def456",
      "title": "",
      "year": 2019
    }
  ]
}`

func newTestClient(apiKey, baseURL string) *Client {
	pc := config.ProviderConfig{
		MinInterval:    time.Millisecond,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
	var opts []providers.HTTPClientOption
	if apiKey != "" {
		opts = append(opts, providers.WithAPIKey(APIKeyHeader, apiKey))
	}
	hc := providers.NewHTTPClient(domain.SourceTypeSemanticScholar, pc, zerolog.Nop(), opts...)
	return NewWithHTTPClient(Config{BaseURL: baseURL, Enabled: true}, hc, zerolog.Nop())
}

func TestSearch(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(APIKeyHeader)
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	client := newTestClient("secret-key", srv.URL)
	records, err := client.Search(context.Background(), "scaling laws", 10)
	require.NoError(t, err)

	assert.Equal(t, "secret-key", gotKey)
	require.Len(t, records, 1, "untitled paper is skipped")

	rec := records[0]
	assert.Equal(t, "Scaling Laws for Neural Language Models", rec.Title)
	assert.Equal(t, "10.1234/example", rec.DOI, "doi.org prefix is stripped")
	assert.Equal(t, "https://host.example/scaling.pdf", rec.PDFURL, "open access PDF beats the arXiv fallback")
	assert.Equal(t, 2020, rec.Year)
	assert.Equal(t, 4200, rec.CitationCount)
	assert.Equal(t, []string{"Jared Kaplan", "Sam McCandlish"}, rec.Authors)
	assert.Equal(t, domain.SourceTypeSemanticScholar, rec.Source)
}

func TestLookupByDOI(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/paper/DOI:10.1234")
			_, _ = w.Write([]byte(`{"paperId": "abc", "title": "Found Paper", "year": 2021, "externalIds": {"DOI": "10.1234/found"}}`))
		}))
		defer srv.Close()

		client := newTestClient("", srv.URL)
		rec, err := client.LookupByDOI(context.Background(), "doi:10.1234/found")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "Found Paper", rec.Title)
		assert.Equal(t, "10.1234/found", rec.DOI)
	})

	t.Run("not indexed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := newTestClient("", srv.URL)
		rec, err := client.LookupByDOI(context.Background(), "10.1234/missing")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("invalid doi short-circuits", func(t *testing.T) {
		client := newTestClient("", "http://unused.invalid")
		rec, err := client.LookupByDOI(context.Background(), "not-a-doi")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "forbidden: missing api key"}`))
	}))
	defer srv.Close()

	client := newTestClient("", srv.URL)
	_, err := client.Search(context.Background(), "anything", 5)
	require.Error(t, err)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
