package providers

import (
	"context"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// Provider is the contract every bibliographic source adapter implements.
// Each academic API (arXiv, Semantic Scholar, PubMed, ...) provides its
// own implementation, allowing the service to search multiple sources
// concurrently behind a unified contract.
//
// Implementations must:
//   - route every network call through their Executor so rate gating,
//     retries, and health accounting apply uniformly;
//   - parse responses with pure functions that skip malformed entries
//     instead of failing the whole call;
//   - respect context cancellation.
type Provider interface {
	// Search queries the provider and returns normalized records.
	// limit caps the number of results; a non-positive limit uses the
	// provider's configured default.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchRecord, error)

	// HealthCheck reports whether the provider currently looks usable.
	// It consults the consecutive-failure tracker; providers with
	// active health checks may also issue a probe request.
	HealthCheck(ctx context.Context) bool

	// HealthStatus returns the provider's health snapshot.
	HealthStatus() HealthStatus

	// Source returns the provider tag.
	Source() domain.SourceType

	// Name returns a human-readable name for logging and display.
	Name() string

	// Enabled reports whether the provider is configured for use.
	Enabled() bool
}

// DOILookuper is implemented by providers that can resolve a bare DOI to
// a record. A miss returns (nil, nil), never an error.
type DOILookuper interface {
	LookupByDOI(ctx context.Context, doi string) (*domain.SearchRecord, error)
}

// TitleLookuper is implemented by providers that can find a record by
// approximate title match. The result must clear the title-similarity
// threshold (see TitleSimilarity); a miss returns (nil, nil).
type TitleLookuper interface {
	LookupByTitle(ctx context.Context, title string, limit int) (*domain.SearchRecord, error)
}
