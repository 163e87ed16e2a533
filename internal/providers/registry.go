package providers

import (
	"context"
	"sync"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// SourceResult holds the outcome of a search against one provider.
// Exactly one of Records and Err is meaningful.
type SourceResult struct {
	Source  domain.SourceType
	Records []domain.SearchRecord
	Err     error
}

// Registry manages provider adapters and coordinates concurrent
// fan-out searches. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.SourceType]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[domain.SourceType]Provider),
	}
}

// Register adds a provider, replacing any existing provider with the
// same tag.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Source()] = p
}

// Get returns a provider by tag, or nil when not registered.
func (r *Registry) Get(tag domain.SourceType) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[tag]
}

// Enabled returns a snapshot of the enabled providers.
func (r *Registry) Enabled() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}

// HealthSnapshots returns the health status of every registered
// provider.
func (r *Registry) HealthSnapshots() []HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]HealthStatus, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.HealthStatus())
	}
	return out
}

// SearchAll fans a query out to the selected providers concurrently and
// returns one SourceResult per provider, errors included. When tags is
// empty, every enabled provider is searched. A failed source never
// aborts the others; the caller decides how to surface partial results.
func (r *Registry) SearchAll(ctx context.Context, query string, limit int, tags []domain.SourceType) []SourceResult {
	var selected []Provider
	if len(tags) == 0 {
		selected = r.Enabled()
	} else {
		r.mu.RLock()
		selected = make([]Provider, 0, len(tags))
		for _, tag := range tags {
			if p, ok := r.providers[tag]; ok && p.Enabled() {
				selected = append(selected, p)
			}
		}
		r.mu.RUnlock()
	}

	if len(selected) == 0 {
		return nil
	}

	resultCh := make(chan SourceResult, len(selected))
	var wg sync.WaitGroup
	for _, p := range selected {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			records, err := p.Search(ctx, query, limit)
			resultCh <- SourceResult{Source: p.Source(), Records: records, Err: err}
		}(p)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]SourceResult, 0, len(selected))
	for res := range resultCh {
		results = append(results, res)
	}
	return results
}
