package dblp

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

const hitsFixture = `{
  "result": {
    "hits": {
      "@total": "3",
      "hit": [
        {
          "info": {
            "title": "Attention Is All You Need.",
            "authors": {"author": [{"text": "Ashish Vaswani"}, {"text": "Noam Shazeer"}]},
            "year": "2017",
            "venue": "NeurIPS",
            "doi": "10.5555/3295222",
            "ee": ["https://arxiv.org/abs/1706.03762", "https://papers.example/attention.pdf"],
            "url": "https://dblp.org/rec/conf/nips/VaswaniSPUJGKP17"
          }
        },
        {
          "info": {
            "title": "Single Author Single EE.",
            "authors": {"author": {"text": "Grace Hopper"}},
            "year": "1952",
            "venue": ["COMPCON", "Alt Venue"],
            "ee": "https://arxiv.org/abs/2101.00001"
          }
        },
        {"info": {"title": ""}}
      ]
    }
  }
}`

func newTestClient(baseURL string) *Client {
	pc := config.ProviderConfig{
		MinInterval:    time.Millisecond,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
	hc := providers.NewHTTPClient(domain.SourceTypeDBLP, pc, zerolog.Nop())
	return NewWithHTTPClient(Config{BaseURL: baseURL, Enabled: true}, hc, zerolog.Nop())
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(hitsFixture))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	records, err := client.Search(context.Background(), "attention", 10)
	require.NoError(t, err)
	require.Len(t, records, 2, "untitled hit is skipped")

	first := records[0]
	assert.Equal(t, "Attention Is All You Need", first.Title, "trailing period trimmed")
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.Authors)
	assert.Equal(t, 2017, first.Year)
	assert.Equal(t, "NeurIPS", first.Venue)
	assert.Equal(t, "https://papers.example/attention.pdf", first.PDFURL, "explicit .pdf ee wins")
	assert.Equal(t, "https://dblp.org/rec/conf/nips/VaswaniSPUJGKP17", first.URL)

	second := records[1]
	assert.Equal(t, []string{"Grace Hopper"}, second.Authors, "single-object author variant accepted")
	assert.Equal(t, "COMPCON", second.Venue, "list venue variant accepted")
	assert.Equal(t, "https://arxiv.org/abs/2101.00001", second.URL, "first ee used when url absent")
	assert.Equal(t, "https://arxiv.org/pdf/2101.00001.pdf", second.PDFURL, "arXiv ee converts to PDF URL")
}

func TestAuthorFieldVariants(t *testing.T) {
	var f AuthorField
	require.NoError(t, f.UnmarshalJSON([]byte(`[{"text": "A"}, "B"]`)))
	require.Len(t, f, 2)
	assert.Equal(t, "A", f[0].Text)
	assert.Equal(t, "B", f[1].Text, "bare string author accepted")

	require.NoError(t, f.UnmarshalJSON([]byte(`{"text": "Solo"}`)))
	require.Len(t, f, 1)
	assert.Equal(t, "Solo", f[0].Text)
}
