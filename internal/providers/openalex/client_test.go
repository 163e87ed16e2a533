package openalex

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

const worksFixture = `{
  "meta": {"count": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "doi": "https://doi.org/10.7717/peerj.4375",
      "title": "The state of OA",
      "display_name": "The state of OA",
      "publication_year": 2018,
      "cited_by_count": 1200,
      "abstract_inverted_index": {"large-scale": [2], "Despite": [0], "growth,": [3], "OA": [1]},
      "primary_location": {
        "landing_page_url": "https://peerj.com/articles/4375",
        "pdf_url": "https://peerj.com/articles/4375.pdf",
        "source": {"display_name": "PeerJ"}
      },
      "open_access": {"is_oa": true, "oa_url": "https://peerj.com/articles/4375.pdf"},
      "authorships": [
        {"author": {"display_name": "Heather Piwowar"}},
        {"author": {"display_name": "Jason Priem"}}
      ]
    }
  ]
}`

func newTestClient(baseURL string) *Client {
	pc := config.ProviderConfig{
		MinInterval:    time.Millisecond,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
	hc := providers.NewHTTPClient(domain.SourceTypeOpenAlex, pc, zerolog.Nop())
	return NewWithHTTPClient(Config{BaseURL: baseURL, Enabled: true}, hc, zerolog.Nop())
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		assert.Equal(t, "open access", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(worksFixture))
	}))
	defer srv.Close()

	records, err := newTestClient(srv.URL).Search(context.Background(), "open access", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "The state of OA", rec.Title)
	assert.Equal(t, "Despite OA large-scale growth,", rec.Abstract, "abstract rebuilt from the inverted index")
	assert.Equal(t, "10.7717/peerj.4375", rec.DOI)
	assert.Equal(t, 2018, rec.Year)
	assert.Equal(t, 1200, rec.CitationCount)
	assert.Equal(t, "PeerJ", rec.Venue)
	assert.Equal(t, "https://peerj.com/articles/4375", rec.URL)
	assert.Equal(t, "https://peerj.com/articles/4375.pdf", rec.PDFURL)
	assert.Equal(t, []string{"Heather Piwowar", "Jason Priem"}, rec.Authors)
	assert.Equal(t, domain.SourceTypeOpenAlex, rec.Source)
}

func TestLookupByDOI(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/works/https:/")
			_, _ = w.Write([]byte(`{"id": "https://openalex.org/W1", "title": "Found Work", "publication_year": 2020}`))
		}))
		defer srv.Close()

		rec, err := newTestClient(srv.URL).LookupByDOI(context.Background(), "10.7717/peerj.4375")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "Found Work", rec.Title)
		assert.Equal(t, "https://openalex.org/W1", rec.URL, "work id used when no location")
	})

	t.Run("miss", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		rec, err := newTestClient(srv.URL).LookupByDOI(context.Background(), "10.9999/none")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestAbstractReconstruction(t *testing.T) {
	w := Work{AbstractInvertedIndex: map[string][]int{
		"deep":     {0, 3},
		"learning": {1},
		"with":     {2},
	}}
	assert.Equal(t, "deep learning with deep", w.Abstract())

	empty := Work{}
	assert.Empty(t, empty.Abstract())
}
