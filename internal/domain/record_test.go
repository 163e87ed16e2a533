package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDOI(t *testing.T) {
	t.Run("strips https resolver prefix", func(t *testing.T) {
		assert.Equal(t, "10.1/x", NormalizeDOI("https://doi.org/10.1/x"))
	})

	t.Run("strips http resolver prefix", func(t *testing.T) {
		assert.Equal(t, "10.1038/nature12373", NormalizeDOI("http://doi.org/10.1038/nature12373"))
	})

	t.Run("strips doi scheme prefix", func(t *testing.T) {
		assert.Equal(t, "10.1/x", NormalizeDOI("doi:10.1/x"))
	})

	t.Run("bare DOI passes through", func(t *testing.T) {
		assert.Equal(t, "10.1/x", NormalizeDOI("10.1/x"))
	})

	t.Run("lowercases", func(t *testing.T) {
		assert.Equal(t, "10.1016/j.cell.2023.01.001", NormalizeDOI("10.1016/J.CELL.2023.01.001"))
	})

	t.Run("rejects non-DOI strings", func(t *testing.T) {
		assert.Empty(t, NormalizeDOI("not-a-doi"))
		assert.Empty(t, NormalizeDOI("11.1234/x"))
		assert.Empty(t, NormalizeDOI("10.1234"))
		assert.Empty(t, NormalizeDOI(""))
	})
}

func TestExtractArxivID(t *testing.T) {
	t.Run("new format abs URL", func(t *testing.T) {
		assert.Equal(t, "2401.12345", ExtractArxivID("https://arxiv.org/abs/2401.12345"))
	})

	t.Run("strips version suffix", func(t *testing.T) {
		assert.Equal(t, "2401.12345", ExtractArxivID("https://arxiv.org/abs/2401.12345v3"))
	})

	t.Run("pdf URL", func(t *testing.T) {
		assert.Equal(t, "2103.00020", ExtractArxivID("https://arxiv.org/pdf/2103.00020v1"))
	})

	t.Run("old format with category", func(t *testing.T) {
		assert.Equal(t, "hep-th/9901001", ExtractArxivID("https://arxiv.org/abs/hep-th/9901001v2"))
	})

	t.Run("non-arxiv URL", func(t *testing.T) {
		assert.Empty(t, ExtractArxivID("https://example.com/abs/2401.12345"))
	})
}

func TestNormalizeArxivURL(t *testing.T) {
	t.Run("abstract URL becomes versionless pdf URL", func(t *testing.T) {
		assert.Equal(t,
			"https://arxiv.org/pdf/2401.12345.pdf",
			NormalizeArxivURL("https://arxiv.org/abs/2401.12345v3"))
	})

	t.Run("non-arxiv URL unchanged", func(t *testing.T) {
		assert.Equal(t, "https://example.com/p.pdf", NormalizeArxivURL("https://example.com/p.pdf"))
	})
}

func TestCitationKey(t *testing.T) {
	t.Run("author year and first significant title word", func(t *testing.T) {
		rec := SearchRecord{
			Title:   "The Structure of Scientific Revolutions",
			Authors: []string{"Thomas S. Kuhn"},
			Year:    1962,
		}
		assert.Equal(t, "kuhn1962structure", rec.CitationKey())
	})

	t.Run("missing year uses nodate", func(t *testing.T) {
		rec := SearchRecord{
			Title:   "On Computable Numbers",
			Authors: []string{"Alan Turing"},
		}
		assert.Equal(t, "turingnodatecomputable", rec.CitationKey())
	})

	t.Run("no authors", func(t *testing.T) {
		rec := SearchRecord{Title: "A Survey", Year: 2020}
		assert.Equal(t, "unknown2020survey", rec.CitationKey())
	})

	t.Run("strips punctuation from name and title", func(t *testing.T) {
		rec := SearchRecord{
			Title:   "An O'Reilly-style Guide",
			Authors: []string{"María García-López"},
			Year:    2021,
		}
		assert.Equal(t, "garcalpez2021oreillystyle", rec.CitationKey())
	})
}

func TestIsKnownSourceType(t *testing.T) {
	for _, tag := range KnownSourceTypes {
		assert.True(t, IsKnownSourceType(tag), "tag %s", tag)
	}
	assert.True(t, IsKnownSourceType(SourceTypeMedRxiv))
	assert.False(t, IsKnownSourceType("scholar"))
}
