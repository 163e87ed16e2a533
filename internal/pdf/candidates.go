// Package pdf implements PDF acquisition: candidate URL generation,
// HTML landing-page extraction, the download state machine, preprint
// fallbacks, and the per-record acquisition engine.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openlit/literature-acquisition-service/internal/domain"
)

// Generator derives alternative PDF URLs from landing-page URLs and
// DOIs. It is pure: no I/O, deterministic output, duplicate-free lists
// that never echo the input back.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator { return &Generator{} }

var (
	pmcNCBIRe   = regexp.MustCompile(`ncbi\.nlm\.nih\.gov/pmc/articles/PMC(\d+)`)
	pmcHostRe   = regexp.MustCompile(`pmc\.ncbi\.nlm\.nih\.gov/articles/PMC(\d+)`)
	pmcEuropeRe = regexp.MustCompile(`europepmc\.org/article/PMC/(\d+)`)

	rxivContentRe = regexp.MustCompile(`(biorxiv|medrxiv)\.org/content/(10\.\d+/[^?#]+?)(?:v\d+)?(?:\.full(?:\.pdf)?)?(?:[?#].*)?$`)

	sciencedirectRe = regexp.MustCompile(`sciencedirect\.com/science/article/(?:abs/)?pii/([A-Za-z0-9]+)`)
	mdpiRe          = regexp.MustCompile(`mdpi\.com/(\d+-\d+/\d+/\d+/\d+)(?:/|$)`)
	frontiersRe     = regexp.MustCompile(`frontiersin\.org/articles/(10\.\d+/[^/?#]+)`)
	natureRe        = regexp.MustCompile(`nature\.com/articles/([^/?#]+?)(?:\.pdf)?(?:[?#].*)?$`)
	oupRe           = regexp.MustCompile(`academic\.oup\.com/[a-z-]+/article(?:-abstract)?/doi/(10\.[^?#]+?)(?:/[0-9]+)?(?:[?#].*)?$`)
	ieeeDocRe       = regexp.MustCompile(`ieeexplore\.ieee\.org/(?:abstract/)?document/(\d+)`)
	osfRe           = regexp.MustCompile(`^https?://(?:www\.)?osf\.io/([a-z0-9]{4,8})/?$`)
	preprintsRe     = regexp.MustCompile(`preprints\.org/manuscript/([^/?#]+)/v(\d+)`)

	ieeeDOITailRe = regexp.MustCompile(`\.(\d+)$`)
)

// Transform produces alternative PDF URLs for a landing-page or article
// URL. Every matching publisher rule contributes in order; the input URL
// itself is excluded.
func (g *Generator) Transform(rawURL string) []string {
	if rawURL == "" {
		return nil
	}

	var out []string

	if id := firstGroup(pmcNCBIRe, rawURL); id == "" {
		if id = firstGroup(pmcHostRe, rawURL); id == "" {
			id = firstGroup(pmcEuropeRe, rawURL)
		}
		if id != "" {
			out = append(out, pmcCandidates(id)...)
		}
	} else {
		out = append(out, pmcCandidates(id)...)
	}

	if id := domain.ExtractArxivID(rawURL); id != "" {
		out = append(out,
			"https://arxiv.org/pdf/"+id+".pdf",
			"https://export.arxiv.org/pdf/"+id+".pdf",
		)
	}

	if m := rxivContentRe.FindStringSubmatch(rawURL); m != nil {
		out = append(out, fmt.Sprintf("https://www.%s.org/content/%s.full.pdf", m[1], m[2]))
	}

	if pii := firstGroup(sciencedirectRe, rawURL); pii != "" {
		out = append(out, "https://www.sciencedirect.com/science/article/pii/"+pii+"/pdfft?isDTMRedir=true&download=true")
	}

	if path := firstGroup(mdpiRe, rawURL); path != "" {
		out = append(out, "https://www.mdpi.com/"+path+"/pdf")
	}

	if doi := firstGroup(frontiersRe, rawURL); doi != "" {
		out = append(out, "https://www.frontiersin.org/articles/"+doi+"/pdf")
	}

	if id := firstGroup(natureRe, rawURL); id != "" {
		out = append(out, "https://www.nature.com/articles/"+id+".pdf")
	}

	if doi := firstGroup(oupRe, rawURL); doi != "" {
		out = append(out, "https://academic.oup.com/view-pdf/doi/"+doi)
	}

	if n := firstGroup(ieeeDocRe, rawURL); n != "" {
		out = append(out, ieeeCandidates(n)...)
	}

	if id := firstGroup(osfRe, strings.ToLower(rawURL)); id != "" {
		out = append(out, "https://osf.io/"+id+"/download")
	}

	if m := preprintsRe.FindStringSubmatch(rawURL); m != nil {
		out = append(out, fmt.Sprintf("https://www.preprints.org/manuscript/%s/v%s/download", m[1], m[2]))
	}

	return dedupeExcluding(out, rawURL)
}

// DoiToURLs maps a DOI onto publisher-specific PDF URL patterns keyed by
// the DOI prefix. Unknown prefixes fall back to the doi.org resolver.
func (g *Generator) DoiToURLs(doi string) []string {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil
	}

	tail := doi
	if i := strings.Index(doi, "/"); i >= 0 {
		tail = doi[i+1:]
	}

	var out []string
	switch {
	case strings.HasPrefix(doi, "10.1016/"), strings.HasPrefix(doi, "10.1017/"):
		out = append(out, "https://www.sciencedirect.com/science/article/pii/"+piiFromDOITail(tail)+"/pdfft?isDTMRedir=true&download=true")

	case strings.HasPrefix(doi, "10.1007/"):
		out = append(out,
			"https://link.springer.com/content/pdf/"+doi+".pdf",
			"https://www.nature.com/articles/"+tail+".pdf",
		)

	case strings.HasPrefix(doi, "10.1038/"):
		out = append(out,
			"https://www.nature.com/articles/"+tail+".pdf",
			"https://link.springer.com/content/pdf/"+doi+".pdf",
		)

	case strings.HasPrefix(doi, "10.1002/"), strings.HasPrefix(doi, "10.1111/"):
		out = append(out, "https://onlinelibrary.wiley.com/doi/pdfdirect/"+doi)

	case strings.HasPrefix(doi, "10.1371/"):
		out = append(out, "https://journals.plos.org/plosone/article/file?id="+doi+"&type=printable")

	case strings.HasPrefix(doi, "10.3389/"):
		out = append(out, "https://www.frontiersin.org/articles/"+doi+"/pdf")

	case strings.HasPrefix(doi, "10.3390/"):
		out = append(out, "https://www.mdpi.com/article/"+doi+"/pdf")

	case strings.HasPrefix(doi, "10.1093/"):
		out = append(out, "https://academic.oup.com/view-pdf/doi/"+doi)

	case strings.HasPrefix(doi, "10.1109/"):
		// IEEE DOI tails usually end in the article number.
		if m := ieeeDOITailRe.FindStringSubmatch(tail); m != nil {
			out = append(out, ieeeCandidates(m[1])...)
		}

	case strings.HasPrefix(doi, "10.31234/osf.io/"), strings.HasPrefix(doi, "10.31219/osf.io/"):
		if i := strings.LastIndex(doi, "/"); i >= 0 && i+1 < len(doi) {
			out = append(out, "https://osf.io/"+doi[i+1:]+"/download")
		}
	}

	if len(out) == 0 {
		out = append(out, "https://doi.org/"+doi)
	}
	return dedupeExcluding(out, "")
}

// LooksLikeAbstractPage reports whether the URL path points at an
// abstract or landing page rather than a document.
func LooksLikeAbstractPage(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, "/abs/") ||
		strings.Contains(lower, "/abstract") ||
		strings.HasSuffix(lower, "/abs")
}

func pmcCandidates(id string) []string {
	return []string{
		"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC" + id + "/pdf/",
		"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC" + id + "/pdf/main.pdf",
		"https://pmc.ncbi.nlm.nih.gov/articles/PMC" + id + "/pdf/",
		"https://pmc.ncbi.nlm.nih.gov/articles/PMC" + id + "/pdf/main.pdf",
		"https://europepmc.org/articles/PMC" + id + "?pdf=render",
		"https://ftp.ncbi.nlm.nih.gov/pub/pmc/oa_pdf/PMC" + id + ".pdf",
	}
}

func ieeeCandidates(arnumber string) []string {
	return []string{
		"https://ieeexplore.ieee.org/document/" + arnumber,
		"https://ieeexplore.ieee.org/stamp/stamp.jsp?tp=&arnumber=" + arnumber,
		"https://ieeexplore.ieee.org/stampPDF/getPDF.jsp?tp=&arnumber=" + arnumber,
	}
}

// piiFromDOITail strips the separators a ScienceDirect PII never carries.
func piiFromDOITail(tail string) string {
	var b strings.Builder
	for _, r := range tail {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// dedupeExcluding keeps first occurrences in order, dropping exclude.
func dedupeExcluding(urls []string, exclude string) []string {
	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if u == "" || u == exclude || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
