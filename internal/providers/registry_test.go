package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// fakeProvider is a minimal Provider for registry tests.
type fakeProvider struct {
	source  domain.SourceType
	records []domain.SearchRecord
	err     error
	enabled bool
}

func (f *fakeProvider) Search(_ context.Context, _ string, _ int) ([]domain.SearchRecord, error) {
	return f.records, f.err
}
func (f *fakeProvider) HealthCheck(context.Context) bool { return true }
func (f *fakeProvider) HealthStatus() HealthStatus {
	return HealthStatus{Source: f.source, Healthy: true}
}
func (f *fakeProvider) Source() domain.SourceType { return f.source }
func (f *fakeProvider) Name() string              { return string(f.source) }
func (f *fakeProvider) Enabled() bool             { return f.enabled }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	p := &fakeProvider{source: domain.SourceTypeArXiv, enabled: true}
	r.Register(p)

	assert.Same(t, Provider(p), r.Get(domain.SourceTypeArXiv))
	assert.Nil(t, r.Get(domain.SourceTypePubMed))
}

func TestRegistry_Enabled(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeProvider{source: domain.SourceTypeArXiv, enabled: true})
	r.Register(&fakeProvider{source: domain.SourceTypePubMed, enabled: false})

	enabled := r.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, domain.SourceTypeArXiv, enabled[0].Source())
}

func TestRegistry_SearchAll(t *testing.T) {
	rec := domain.SearchRecord{Title: "A Paper", Source: domain.SourceTypeArXiv}

	t.Run("collects results and errors from all sources", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&fakeProvider{source: domain.SourceTypeArXiv, enabled: true, records: []domain.SearchRecord{rec}})
		r.Register(&fakeProvider{source: domain.SourceTypeCrossRef, enabled: true, err: errors.New("boom")})

		results := r.SearchAll(context.Background(), "anything", 10, nil)
		require.Len(t, results, 2)

		bySource := map[domain.SourceType]SourceResult{}
		for _, res := range results {
			bySource[res.Source] = res
		}
		assert.Len(t, bySource[domain.SourceTypeArXiv].Records, 1)
		assert.NoError(t, bySource[domain.SourceTypeArXiv].Err)
		assert.Error(t, bySource[domain.SourceTypeCrossRef].Err)
	})

	t.Run("restricts to requested tags", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&fakeProvider{source: domain.SourceTypeArXiv, enabled: true, records: []domain.SearchRecord{rec}})
		r.Register(&fakeProvider{source: domain.SourceTypeCrossRef, enabled: true})

		results := r.SearchAll(context.Background(), "q", 10, []domain.SourceType{domain.SourceTypeArXiv})
		require.Len(t, results, 1)
		assert.Equal(t, domain.SourceTypeArXiv, results[0].Source)
	})

	t.Run("skips disabled providers", func(t *testing.T) {
		r := NewRegistry()
		r.Register(&fakeProvider{source: domain.SourceTypeArXiv, enabled: false})

		assert.Nil(t, r.SearchAll(context.Background(), "q", 10, nil))
	})
}

func TestRegistry_HealthSnapshots(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeProvider{source: domain.SourceTypeArXiv, enabled: true})
	r.Register(&fakeProvider{source: domain.SourceTypePubMed, enabled: true})

	snaps := r.HealthSnapshots()
	assert.Len(t, snaps, 2)
}
