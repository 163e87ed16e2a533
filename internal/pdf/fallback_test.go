package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

type stubOAFinder struct {
	url string
	err error
}

func (s *stubOAFinder) BestPDFURL(context.Context, string) (string, error) {
	return s.url, s.err
}

type stubTitleFinder struct {
	match *domain.SearchRecord
	err   error
}

func (s *stubTitleFinder) LookupByTitle(context.Context, string, int) (*domain.SearchRecord, error) {
	return s.match, s.err
}

type stubPreprintFinder struct {
	byDOI   *domain.SearchRecord
	byTitle *domain.SearchRecord
	doiErr  error
}

func (s *stubPreprintFinder) LookupByDOI(context.Context, string) (*domain.SearchRecord, error) {
	return s.byDOI, s.doiErr
}

func (s *stubPreprintFinder) LookupByTitle(context.Context, string, int) (*domain.SearchRecord, error) {
	return s.byTitle, nil
}

func TestUnpaywallURL(t *testing.T) {
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		o := NewFallbackOrchestrator(&stubOAFinder{url: "https://repo.example/p.pdf"}, nil, nil, zerolog.Nop())
		assert.Equal(t, "https://repo.example/p.pdf", o.UnpaywallURL(ctx, "10.1/x"))
	})

	t.Run("lookup error is a miss", func(t *testing.T) {
		o := NewFallbackOrchestrator(&stubOAFinder{err: errors.New("boom")}, nil, nil, zerolog.Nop())
		assert.Empty(t, o.UnpaywallURL(ctx, "10.1/x"))
	})

	t.Run("disabled", func(t *testing.T) {
		o := NewFallbackOrchestrator(nil, nil, nil, zerolog.Nop())
		assert.Empty(t, o.UnpaywallURL(ctx, "10.1/x"))
	})

	t.Run("no doi", func(t *testing.T) {
		o := NewFallbackOrchestrator(&stubOAFinder{url: "x"}, nil, nil, zerolog.Nop())
		assert.Empty(t, o.UnpaywallURL(ctx, ""))
	})
}

func TestArxivByTitle(t *testing.T) {
	ctx := context.Background()
	record := &domain.SearchRecord{Title: "Attention Is All You Need"}

	t.Run("match with pdf url", func(t *testing.T) {
		o := NewFallbackOrchestrator(nil, &stubTitleFinder{match: &domain.SearchRecord{
			PDFURL: "https://arxiv.org/pdf/1706.03762.pdf",
		}}, nil, zerolog.Nop())
		assert.Equal(t, "https://arxiv.org/pdf/1706.03762.pdf", o.ArxivByTitle(ctx, record))
	})

	t.Run("match without pdf url transforms the abstract url", func(t *testing.T) {
		o := NewFallbackOrchestrator(nil, &stubTitleFinder{match: &domain.SearchRecord{
			URL: "https://arxiv.org/abs/1706.03762",
		}}, nil, zerolog.Nop())
		assert.Equal(t, "https://arxiv.org/pdf/1706.03762.pdf", o.ArxivByTitle(ctx, record))
	})

	t.Run("no match", func(t *testing.T) {
		o := NewFallbackOrchestrator(nil, &stubTitleFinder{}, nil, zerolog.Nop())
		assert.Empty(t, o.ArxivByTitle(ctx, record))
	})
}

func TestBiorxivByDOI(t *testing.T) {
	ctx := context.Background()
	record := &domain.SearchRecord{Title: "Genomic analysis", DOI: "10.1101/2024.01.15.575000"}

	t.Run("doi hit", func(t *testing.T) {
		o := NewFallbackOrchestrator(nil, nil, &stubPreprintFinder{byDOI: &domain.SearchRecord{
			PDFURL: "https://www.biorxiv.org/content/10.1101/2024.01.15.575000.full.pdf",
		}}, zerolog.Nop())
		assert.Equal(t, "https://www.biorxiv.org/content/10.1101/2024.01.15.575000.full.pdf",
			o.BiorxivByDOI(ctx, record))
	})

	t.Run("doi miss falls back to title", func(t *testing.T) {
		o := NewFallbackOrchestrator(nil, nil, &stubPreprintFinder{byTitle: &domain.SearchRecord{
			PDFURL: "https://www.biorxiv.org/content/10.1101/other.full.pdf",
		}}, zerolog.Nop())
		assert.Equal(t, "https://www.biorxiv.org/content/10.1101/other.full.pdf",
			o.BiorxivByDOI(ctx, record))
	})

	t.Run("total miss", func(t *testing.T) {
		o := NewFallbackOrchestrator(nil, nil, &stubPreprintFinder{}, zerolog.Nop())
		assert.Empty(t, o.BiorxivByDOI(ctx, record))
	})
}
