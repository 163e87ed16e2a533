package pdf

import (
	"context"
	"sync"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// Result is the outcome of one pooled acquisition.
type Result struct {
	Record *domain.SearchRecord
	Path   string
	Err    error
}

// Pool runs acquisitions through a bounded worker pool. Submissions past
// capacity block until a slot frees up.
type Pool struct {
	engine *Engine
	sem    chan struct{}
}

// NewPool creates a Pool with the given concurrency.
func NewPool(engine *Engine, size int) *Pool {
	if size <= 0 {
		size = 4
	}
	return &Pool{
		engine: engine,
		sem:    make(chan struct{}, size),
	}
}

// Acquire runs one acquisition, blocking while the pool is full.
func (p *Pool) Acquire(ctx context.Context, record *domain.SearchRecord) (string, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()
	return p.engine.Acquire(ctx, record)
}

// AcquireAll acquires PDFs for every record concurrently and returns one
// Result per record, in input order.
func (p *Pool) AcquireAll(ctx context.Context, records []domain.SearchRecord) []Result {
	results := make([]Result, len(records))

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := &records[i]
			path, err := p.Acquire(ctx, rec)
			results[i] = Result{Record: rec, Path: path, Err: err}
		}(i)
	}
	wg.Wait()

	return results
}
