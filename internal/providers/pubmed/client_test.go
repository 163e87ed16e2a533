package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlit/literature-acquisition-service/internal/config"
	"github.com/openlit/literature-acquisition-service/internal/domain"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

const esearchFixture = `<?xml version="1.0" encoding="UTF-8"?>
<eSearchResult>
  <Count>2</Count>
  <IdList>
    <Id>34265844</Id>
    <Id>12345678</Id>
  </IdList>
</eSearchResult>`

const efetchFixture = `<?xml version="1.0" encoding="UTF-8"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>34265844</PMID>
      <Article>
        <Journal>
          <Title>Nature</Title>
          <JournalIssue><PubDate><Year>2021</Year></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>Highly accurate protein structure prediction</ArticleTitle>
        <Abstract>
          <AbstractText>Proteins are essential to life.</AbstractText>
          <AbstractText>We provide a solution.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Jumper</LastName><ForeName>John</ForeName></Author>
          <Author><CollectiveName>AlphaFold Team</CollectiveName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="doi">10.1038/s41586-021-03819-2</ArticleId>
        <ArticleId IdType="pmc">PMC8371605</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>12345678</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><MedlineDate>1998 Dec-1999 Jan</MedlineDate></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>Older Record</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func newTestClient(baseURL string) *Client {
	pc := config.ProviderConfig{
		MinInterval:    time.Millisecond,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}
	hc := providers.NewHTTPClient(domain.SourceTypePubMed, pc, zerolog.Nop())
	return NewWithHTTPClient(Config{BaseURL: baseURL, Enabled: true}, hc, zerolog.Nop())
}

func TestSearch(t *testing.T) {
	var fetchedIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			assert.Equal(t, "protein folding", r.URL.Query().Get("term"))
			_, _ = w.Write([]byte(esearchFixture))
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			fetchedIDs = r.URL.Query().Get("id")
			_, _ = w.Write([]byte(efetchFixture))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	records, err := client.Search(context.Background(), "protein folding", 10)
	require.NoError(t, err)

	assert.Equal(t, "34265844,12345678", fetchedIDs)
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, "Highly accurate protein structure prediction", rec.Title)
	assert.Equal(t, "Proteins are essential to life. We provide a solution.", rec.Abstract)
	assert.Equal(t, 2021, rec.Year)
	assert.Equal(t, "Nature", rec.Venue)
	assert.Equal(t, "10.1038/s41586-021-03819-2", rec.DOI)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC8371605/pdf/", rec.PDFURL)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/34265844/", rec.URL)
	assert.Equal(t, []string{"John Jumper", "AlphaFold Team"}, rec.Authors)
	assert.Equal(t, domain.SourceTypePubMed, rec.Source)

	assert.Equal(t, 1998, records[1].Year, "year parsed out of MedlineDate text")
}

func TestSearchNoHits(t *testing.T) {
	var fetchCalled bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/efetch.fcgi") {
			fetchCalled = true
		}
		_, _ = w.Write([]byte(`<?xml version="1.0"?><eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	records, err := client.Search(context.Background(), "no such topic", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, fetchCalled, "efetch is skipped when esearch finds nothing")
}
