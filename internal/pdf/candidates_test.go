package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformPMC(t *testing.T) {
	g := NewGenerator()

	for _, input := range []string{
		"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC123456/",
		"https://pmc.ncbi.nlm.nih.gov/articles/PMC123456/",
		"https://europepmc.org/article/PMC/123456",
	} {
		out := g.Transform(input)
		require.NotEmpty(t, out, input)
		assert.Equal(t, []string{
			"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC123456/pdf/",
			"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC123456/pdf/main.pdf",
			"https://pmc.ncbi.nlm.nih.gov/articles/PMC123456/pdf/",
			"https://pmc.ncbi.nlm.nih.gov/articles/PMC123456/pdf/main.pdf",
			"https://europepmc.org/articles/PMC123456?pdf=render",
			"https://ftp.ncbi.nlm.nih.gov/pub/pmc/oa_pdf/PMC123456.pdf",
		}, out, input)
	}
}

func TestTransformArxiv(t *testing.T) {
	g := NewGenerator()

	out := g.Transform("https://arxiv.org/abs/2401.12345v3")
	assert.Equal(t, []string{
		"https://arxiv.org/pdf/2401.12345.pdf",
		"https://export.arxiv.org/pdf/2401.12345.pdf",
	}, out, "version suffix stripped")
}

func TestTransformPublishers(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"biorxiv content page", "https://www.biorxiv.org/content/10.1101/2024.01.15.575000v2",
			"https://www.biorxiv.org/content/10.1101/2024.01.15.575000.full.pdf"},
		{"sciencedirect pii", "https://www.sciencedirect.com/science/article/pii/S0092867420301234",
			"https://www.sciencedirect.com/science/article/pii/S0092867420301234/pdfft?isDTMRedir=true&download=true"},
		{"mdpi article", "https://www.mdpi.com/1422-0067/21/3/818",
			"https://www.mdpi.com/1422-0067/21/3/818/pdf"},
		{"frontiers article", "https://www.frontiersin.org/articles/10.3389/fnins.2020.00100/full",
			"https://www.frontiersin.org/articles/10.3389/fnins.2020.00100/pdf"},
		{"nature article", "https://www.nature.com/articles/s41586-021-03819-2",
			"https://www.nature.com/articles/s41586-021-03819-2.pdf"},
		{"ieee document", "https://ieeexplore.ieee.org/document/9340611",
			"https://ieeexplore.ieee.org/stamp/stamp.jsp?tp=&arnumber=9340611"},
		{"osf project", "https://osf.io/ab12c/",
			"https://osf.io/ab12c/download"},
		{"preprints.org manuscript", "https://www.preprints.org/manuscript/202401.0123/v1",
			"https://www.preprints.org/manuscript/202401.0123/v1/download"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, g.Transform(tt.input), tt.want)
		})
	}
}

func TestTransformProperties(t *testing.T) {
	g := NewGenerator()

	t.Run("never returns the input", func(t *testing.T) {
		for _, input := range []string{
			"https://arxiv.org/pdf/2401.12345.pdf",
			"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC1/pdf/",
			"https://example.org/paper",
		} {
			assert.NotContains(t, g.Transform(input), input)
		}
	})

	t.Run("duplicate free", func(t *testing.T) {
		out := g.Transform("https://www.ncbi.nlm.nih.gov/pmc/articles/PMC99/")
		seen := map[string]bool{}
		for _, u := range out {
			assert.False(t, seen[u], u)
			seen[u] = true
		}
	})

	t.Run("unknown host yields nothing", func(t *testing.T) {
		assert.Empty(t, g.Transform("https://example.org/some/page"))
		assert.Empty(t, g.Transform(""))
	})
}

func TestDoiToURLs(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		name string
		doi  string
		want string
	}{
		{"elsevier", "10.1016/j.cell.2020.01.001",
			"https://www.sciencedirect.com/science/article/pii/JCELL202001001/pdfft?isDTMRedir=true&download=true"},
		{"springer", "10.1007/s00134-020-06022-5",
			"https://link.springer.com/content/pdf/10.1007/s00134-020-06022-5.pdf"},
		{"nature", "10.1038/s41586-021-03819-2",
			"https://www.nature.com/articles/s41586-021-03819-2.pdf"},
		{"wiley", "10.1002/advs.202001000",
			"https://onlinelibrary.wiley.com/doi/pdfdirect/10.1002/advs.202001000"},
		{"plos", "10.1371/journal.pone.0123456",
			"https://journals.plos.org/plosone/article/file?id=10.1371/journal.pone.0123456&type=printable"},
		{"frontiers", "10.3389/fnins.2020.00100",
			"https://www.frontiersin.org/articles/10.3389/fnins.2020.00100/pdf"},
		{"mdpi", "10.3390/ijms21030818",
			"https://www.mdpi.com/article/10.3390/ijms21030818/pdf"},
		{"oup", "10.1093/bioinformatics/btaa100",
			"https://academic.oup.com/view-pdf/doi/10.1093/bioinformatics/btaa100"},
		{"ieee", "10.1109/TPAMI.2020.2992393",
			"https://ieeexplore.ieee.org/document/2992393"},
		{"osf preprint", "10.31234/osf.io/ab12c",
			"https://osf.io/ab12c/download"},
		{"unknown prefix resolver fallback", "10.9999/unknown.123",
			"https://doi.org/10.9999/unknown.123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, g.DoiToURLs(tt.doi), tt.want)
		})
	}

	t.Run("doi url form normalized first", func(t *testing.T) {
		assert.Contains(t, g.DoiToURLs("https://doi.org/10.1371/journal.pone.0123456"),
			"https://journals.plos.org/plosone/article/file?id=10.1371/journal.pone.0123456&type=printable")
	})

	t.Run("invalid doi yields nothing", func(t *testing.T) {
		assert.Empty(t, g.DoiToURLs("not-a-doi"))
		assert.Empty(t, g.DoiToURLs(""))
	})
}

func TestLooksLikeAbstractPage(t *testing.T) {
	assert.True(t, LooksLikeAbstractPage("https://arxiv.org/abs/2401.12345"))
	assert.True(t, LooksLikeAbstractPage("https://dl.acm.org/doi/abstract/10.1145/1"))
	assert.False(t, LooksLikeAbstractPage("https://arxiv.org/pdf/2401.12345.pdf"))
}
