package pdf

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// OAFinder resolves a DOI to its best open access PDF URL.
type OAFinder interface {
	BestPDFURL(ctx context.Context, doi string) (string, error)
}

// TitleFinder finds a record by approximate title match.
type TitleFinder interface {
	LookupByTitle(ctx context.Context, title string, limit int) (*domain.SearchRecord, error)
}

// PreprintFinder finds a preprint by DOI or title.
type PreprintFinder interface {
	LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error)
	LookupByTitle(ctx context.Context, title string, limit int) (*domain.SearchRecord, error)
}

// FallbackOrchestrator wires the open access and preprint-server
// adapters in as last-resort PDF finders. Any finder may be nil, which
// disables that fallback. Lookup failures are logged and treated as
// misses; fallbacks never abort an acquisition.
type FallbackOrchestrator struct {
	unpaywall OAFinder
	arxiv     TitleFinder
	biorxiv   PreprintFinder
	generator *Generator
	logger    zerolog.Logger
}

// NewFallbackOrchestrator creates a FallbackOrchestrator.
func NewFallbackOrchestrator(unpaywall OAFinder, arxiv TitleFinder, biorxiv PreprintFinder, logger zerolog.Logger) *FallbackOrchestrator {
	return &FallbackOrchestrator{
		unpaywall: unpaywall,
		arxiv:     arxiv,
		biorxiv:   biorxiv,
		generator: NewGenerator(),
		logger:    logger,
	}
}

// UnpaywallURL returns the best open access PDF URL for the DOI, or "".
func (o *FallbackOrchestrator) UnpaywallURL(ctx context.Context, doi string) string {
	if o.unpaywall == nil || doi == "" {
		return ""
	}
	pdfURL, err := o.unpaywall.BestPDFURL(ctx, doi)
	if err != nil {
		o.logger.Debug().Err(err).Str("doi", doi).Msg("unpaywall lookup failed")
		return ""
	}
	return pdfURL
}

// ArxivByTitle searches arXiv for the record's title and returns a PDF
// URL for the best match, or "".
func (o *FallbackOrchestrator) ArxivByTitle(ctx context.Context, record *domain.SearchRecord) string {
	if o.arxiv == nil || record.Title == "" {
		return ""
	}
	match, err := o.arxiv.LookupByTitle(ctx, record.Title, 5)
	if err != nil {
		o.logger.Debug().Err(err).Str("title", record.Title).Msg("arxiv title lookup failed")
		return ""
	}
	if match == nil {
		return ""
	}
	if match.PDFURL != "" {
		return match.PDFURL
	}
	if alts := o.generator.Transform(match.URL); len(alts) > 0 {
		return alts[0]
	}
	return ""
}

// BiorxivByDOI resolves the record on bioRxiv/medRxiv by DOI, falling
// back to a title lookup when the DOI misses. Returns a PDF URL or "".
func (o *FallbackOrchestrator) BiorxivByDOI(ctx context.Context, record *domain.SearchRecord) string {
	if o.biorxiv == nil {
		return ""
	}

	if record.DOI != "" {
		match, err := o.biorxiv.LookupByDOI(ctx, record.DOI)
		if err != nil {
			o.logger.Debug().Err(err).Str("doi", record.DOI).Msg("biorxiv doi lookup failed")
		} else if match != nil && match.PDFURL != "" {
			return match.PDFURL
		}
	}

	if record.Title == "" {
		return ""
	}
	match, err := o.biorxiv.LookupByTitle(ctx, record.Title, 5)
	if err != nil {
		o.logger.Debug().Err(err).Str("title", record.Title).Msg("biorxiv title lookup failed")
		return ""
	}
	if match == nil {
		return ""
	}
	return match.PDFURL
}
