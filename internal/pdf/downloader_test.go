package pdf

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

var pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF")

func newTestDownloader(t *testing.T) (*Downloader, string) {
	t.Helper()
	d := NewDownloader(DownloaderConfig{
		Timeout:              5 * time.Second,
		RetryAttempts:        1,
		RetryDelay:           time.Millisecond,
		AllowPrivateNetworks: true,
	}, zerolog.Nop())
	return d, filepath.Join(t.TempDir(), "out.pdf")
}

func TestAttemptWritesValidPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdfBytes)
	}))
	defer srv.Close()

	d, out := newTestDownloader(t)
	outcome := d.Attempt(context.Background(), srv.URL, out, nil, 0)

	require.True(t, outcome.Succeeded(), "kind=%s err=%v", outcome.Kind, outcome.Err)
	assert.Equal(t, out, outcome.Path)
	assert.Equal(t, int64(len(pdfBytes)), outcome.Bytes)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, written)
}

func TestAttemptStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   domain.FailureKind
	}{
		{http.StatusForbidden, domain.FailureAccessDenied},
		{http.StatusNotFound, domain.FailureNotFound},
		{http.StatusTooManyRequests, domain.FailureRateLimited},
		{http.StatusInternalServerError, domain.FailureServerError},
		{http.StatusGone, domain.FailureUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			d, out := newTestDownloader(t)
			outcome := d.Attempt(context.Background(), srv.URL, out, nil, 0)
			assert.False(t, outcome.Succeeded())
			assert.Equal(t, tt.kind, outcome.Kind)
		})
	}
}

func TestAttemptHTMLRecursion(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/landing", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head><meta name="citation_pdf_url" content="%s/paper.pdf"></head></html>`, srv.URL)
	})
	mux.HandleFunc("/paper.pdf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pdfBytes)
	})

	d, out := newTestDownloader(t)
	outcome := d.Attempt(context.Background(), srv.URL+"/landing", out, nil, 0)

	require.True(t, outcome.Succeeded(), "kind=%s err=%v", outcome.Kind, outcome.Err)
	assert.NoError(t, ValidatePDFFile(out))
}

func TestAttemptHTMLNoLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>subscribe to read</p></body></html>`))
	}))
	defer srv.Close()

	d, out := newTestDownloader(t)
	outcome := d.Attempt(context.Background(), srv.URL, out, nil, 0)

	assert.Equal(t, domain.FailureHTMLNoPDFLink, outcome.Kind)
	assert.NoFileExists(t, out)
}

func TestAttemptHTMLLinksExhausted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/landing", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<a href="/a.pdf">full text</a>
			<a href="/b.pdf">mirror</a>
		</body></html>`))
	})
	mux.HandleFunc("/", http.NotFound)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d, out := newTestDownloader(t)
	outcome := d.Attempt(context.Background(), srv.URL+"/landing", out, nil, 0)

	// When links were followed and all failed, the last link's failure
	// is reported rather than html_no_pdf_link.
	assert.Equal(t, domain.FailureNotFound, outcome.Kind)
	assert.NoFileExists(t, out)
}

func TestAttemptSizeCap(t *testing.T) {
	big := append([]byte("%PDF-1.7\n"), make([]byte, 8192)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(big)
	}))
	defer srv.Close()

	d := NewDownloader(DownloaderConfig{
		Timeout:              5 * time.Second,
		MaxSize:              4096,
		AllowPrivateNetworks: true,
	}, zerolog.Nop())
	out := filepath.Join(t.TempDir(), "out.pdf")

	outcome := d.Attempt(context.Background(), srv.URL, out, nil, 0)

	assert.Equal(t, domain.FailureInvalidResponse, outcome.Kind)
	assert.NoFileExists(t, out)
}

func TestAttemptBlocksPrivateNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request reached a private address")
	}))
	defer srv.Close()

	d := NewDownloader(DownloaderConfig{Timeout: 5 * time.Second}, zerolog.Nop())
	out := filepath.Join(t.TempDir(), "out.pdf")

	outcome := d.Attempt(context.Background(), srv.URL, out, nil, 0)

	assert.Equal(t, domain.FailureNetworkError, outcome.Kind)
	require.ErrorIs(t, outcome.Err, ErrPrivateNetwork)
	assert.NoFileExists(t, out)
}

func TestValidateURLNotPrivate(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"loopback", "http://127.0.0.1/x.pdf"},
		{"loopback name", "http://localhost/x.pdf"},
		{"private range", "http://192.168.1.10/x.pdf"},
		{"file scheme", "file:///etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, validateURLNotPrivate(tt.url), ErrPrivateNetwork)
		})
	}
}

func TestAttemptRecursionDepthBound(t *testing.T) {
	var hits atomic.Int32
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		// Every page links to another HTML page.
		fmt.Fprintf(w, `<html><a href="%s/next%d.pdf">next</a></html>`, srvURL, hits.Load())
	}))
	defer srv.Close()
	srvURL = srv.URL

	d, out := newTestDownloader(t)
	outcome := d.Attempt(context.Background(), srv.URL, out, nil, 0)

	assert.False(t, outcome.Succeeded())
	assert.Contains(t, []domain.FailureKind{domain.FailureHTMLResponse, domain.FailureHTMLNoPDFLink}, outcome.Kind)
}

func TestAttemptContentMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(`<html><body>not a pdf at all</body></html>`))
	}))
	defer srv.Close()

	d, out := newTestDownloader(t)
	outcome := d.Attempt(context.Background(), srv.URL, out, nil, 0)
	assert.Equal(t, domain.FailureContentMismatch, outcome.Kind)
}

func TestAttemptWithRecoveryUARotation(t *testing.T) {
	var served atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == browserUserAgents[0] {
			served.Add(1)
			_, _ = w.Write(pdfBytes)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d, out := newTestDownloader(t)
	outcome, tried := d.AttemptWithRecovery(context.Background(), srv.URL, out)

	require.True(t, outcome.Succeeded(), "kind=%s err=%v", outcome.Kind, outcome.Err)
	assert.EqualValues(t, 1, served.Load())
	// Standard attempt plus the first rotated UA.
	require.Len(t, tried, 2)
	assert.Equal(t, srv.URL, tried[0])
	assert.Equal(t, srv.URL+" [ua-rotate:1]", tried[1])
}

func TestAttemptWithRecoveryExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d, out := newTestDownloader(t)
	outcome, tried := d.AttemptWithRecovery(context.Background(), srv.URL, out)

	assert.Equal(t, domain.FailureNotFound, outcome.Kind)
	// Standard, minimal-headers, three referers, one retry. The HEAD
	// probe fails so no re-GET happens, and 404 skips UA rotation.
	assert.Len(t, tried, 6)
	assert.Contains(t, tried, srv.URL+" [minimal-headers]")
	assert.Contains(t, tried, srv.URL+" [referer:google.com]")
	assert.Contains(t, tried, srv.URL+" [retry:1]")
}

func TestValidatePDFFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "good.pdf")
		require.NoError(t, os.WriteFile(path, pdfBytes, 0o644))
		assert.NoError(t, ValidatePDFFile(path))
	})

	t.Run("empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.pdf")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		assert.Error(t, ValidatePDFFile(path))
	})

	t.Run("wrong magic", func(t *testing.T) {
		path := filepath.Join(dir, "html.pdf")
		require.NoError(t, os.WriteFile(path, []byte("<html>"), 0o644))
		assert.Error(t, ValidatePDFFile(path))
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, ValidatePDFFile(filepath.Join(dir, "nope.pdf")), domain.ErrFileOperation)
	})
}
