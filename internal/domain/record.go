// Package domain provides the canonical record model and shared business
// rules for the literature acquisition service.
package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// SourceType identifies the bibliographic provider that produced a record.
type SourceType string

// Known provider tags. These are the values accepted by the
// LITERATURE_SOURCES configuration option.
const (
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypeSemanticScholar SourceType = "semanticscholar"
	SourceTypePubMed          SourceType = "pubmed"
	SourceTypeEuropePMC       SourceType = "europepmc"
	SourceTypeCrossRef        SourceType = "crossref"
	SourceTypeOpenAlex        SourceType = "openalex"
	SourceTypeDBLP            SourceType = "dblp"
	SourceTypeBioRxiv         SourceType = "biorxiv"
	SourceTypeMedRxiv         SourceType = "medrxiv"
	SourceTypeUnpaywall       SourceType = "unpaywall"
)

// KnownSourceTypes lists every provider tag the service recognizes.
var KnownSourceTypes = []SourceType{
	SourceTypeArXiv,
	SourceTypeSemanticScholar,
	SourceTypePubMed,
	SourceTypeEuropePMC,
	SourceTypeCrossRef,
	SourceTypeOpenAlex,
	SourceTypeDBLP,
	SourceTypeBioRxiv,
	SourceTypeUnpaywall,
}

// IsKnownSourceType reports whether tag is a recognized provider tag.
func IsKnownSourceType(tag SourceType) bool {
	for _, t := range KnownSourceTypes {
		if t == tag {
			return true
		}
	}
	return tag == SourceTypeMedRxiv
}

// SearchRecord is the canonical normalized result produced by every
// provider adapter.
//
// Invariants:
//   - Title is non-empty.
//   - DOI, when present, is lowercased and stripped of URL prefixes
//     (use NormalizeDOI).
//   - PDFURL, when present, is absolute.
//
// Records are immutable after the adapter's parser produces them and are
// passed by value through the acquisition pipeline.
type SearchRecord struct {
	Title         string     `json:"title"`
	Authors       []string   `json:"authors,omitempty"`
	Year          int        `json:"year,omitempty"`
	Abstract      string     `json:"abstract,omitempty"`
	URL           string     `json:"url,omitempty"`
	DOI           string     `json:"doi,omitempty"`
	Source        SourceType `json:"source"`
	PDFURL        string     `json:"pdf_url,omitempty"`
	Venue         string     `json:"venue,omitempty"`
	CitationCount int        `json:"citation_count,omitempty"`
}

// doiPattern matches a bare DOI: a "10." prefix, a registrant segment,
// and a non-empty suffix.
var doiPattern = regexp.MustCompile(`^10\.[^/]+/.+$`)

// NormalizeDOI strips resolver prefixes and lowercases a DOI.
// It returns the empty string when the remainder is not a valid bare DOI.
//
//	NormalizeDOI("https://doi.org/10.1/X") == "10.1/x"
//	NormalizeDOI("doi:10.1/x") == "10.1/x"
//	NormalizeDOI("not-a-doi") == ""
func NormalizeDOI(raw string) string {
	doi := strings.TrimSpace(raw)
	lower := strings.ToLower(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(lower, prefix) {
			doi = doi[len(prefix):]
			lower = lower[len(prefix):]
		}
	}
	doi = strings.ToLower(strings.TrimSpace(doi))
	if !doiPattern.MatchString(doi) {
		return ""
	}
	return doi
}

// arxivURLRegex extracts the arXiv ID from abs or pdf URLs, new
// ("2401.12345") or old ("hep-th/9901001") format, with an optional
// version suffix.
var arxivURLRegex = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/([a-z-]+(?:\.[A-Z]{2})?/\d{7}|\d{4}\.\d{4,5})(v\d+)?`)

// ExtractArxivID returns the arXiv identifier embedded in an arxiv.org
// URL with any version suffix stripped, or "" when the URL does not
// reference an arXiv paper.
func ExtractArxivID(rawURL string) string {
	m := arxivURLRegex.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// NormalizeArxivURL converts any arXiv abstract or PDF URL into the
// canonical versionless PDF URL.
//
//	NormalizeArxivURL("https://arxiv.org/abs/2401.12345v3") ==
//	    "https://arxiv.org/pdf/2401.12345.pdf"
//
// Returns the input unchanged when no arXiv ID can be extracted.
func NormalizeArxivURL(rawURL string) string {
	id := ExtractArxivID(rawURL)
	if id == "" {
		return rawURL
	}
	return ArxivPDFURL(id)
}

// ArxivPDFURL returns the canonical PDF URL for an arXiv ID.
func ArxivPDFURL(id string) string {
	return "https://arxiv.org/pdf/" + strings.TrimSuffix(id, ".pdf") + ".pdf"
}

// titleStopwords are skipped when deriving the filename key from a title.
var titleStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "in": true,
	"of": true, "for": true, "to": true, "and": true, "with": true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// CitationKey derives the deterministic filename stem for a record:
// first author's lowercased last name, publication year (or "nodate"),
// and the first non-stopword title token, all reduced to alphanumerics.
// The acquisition engine appends ".pdf" to this key.
func (r SearchRecord) CitationKey() string {
	author := "unknown"
	if len(r.Authors) > 0 {
		parts := strings.Fields(r.Authors[0])
		if len(parts) > 0 {
			last := nonAlnum.ReplaceAllString(strings.ToLower(parts[len(parts)-1]), "")
			if last != "" {
				author = last
			}
		}
	}

	year := "nodate"
	if r.Year > 0 {
		year = strconv.Itoa(r.Year)
	}

	word := "untitled"
	for _, tok := range strings.Fields(strings.ToLower(r.Title)) {
		tok = nonAlnum.ReplaceAllString(tok, "")
		if tok == "" || titleStopwords[tok] {
			continue
		}
		word = tok
		break
	}

	return author + year + word
}
