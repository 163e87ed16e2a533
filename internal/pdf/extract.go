package pdf

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls candidate PDF URLs out of HTML landing pages. A page
// from a known publisher host goes through that publisher's parser
// first; generic rules always run afterwards.
type Extractor struct {
	hostParsers map[string]hostParser
}

type hostParser func(doc *goquery.Document, body []byte) []string

// NewExtractor creates an Extractor with the built-in publisher parsers.
func NewExtractor() *Extractor {
	return &Extractor{
		hostParsers: map[string]hostParser{
			"ieeexplore.ieee.org": parseIEEE,
			"sciencedirect.com":   parseScienceDirect,
		},
	}
}

var (
	ieeeArnumberRe = regexp.MustCompile(`(?:"arnumber"\s*[:=]\s*"?|var\s+arnumber\s*=\s*")(\d+)`)
	elsevierPIIRe  = regexp.MustCompile(`(?:"pii"\s*:\s*"|var\s+pii\s*=\s*")([A-Za-z0-9]+)"`)

	// Generic JS assignments like pdfUrl = "https://.../x.pdf".
	jsPDFVarRe = regexp.MustCompile(`(?i)(?:pdfUrl|downloadUrl|pdf[A-Za-z]*)\s*[:=]\s*["']([^"']+\.pdf(?:\?[^"']*)?)["']`)
)

// Extract returns an ordered, deduplicated list of absolute candidate
// PDF URLs found in the document. Relative URLs resolve against baseURL;
// non-HTTP schemes are dropped.
func (e *Extractor) Extract(body []byte, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var raw []string
	if parser := e.hostParsers[hostOf(base)]; parser != nil {
		raw = append(raw, parser(doc, body)...)
	}
	raw = append(raw, genericRules(doc, body)...)

	var out []string
	for _, candidate := range raw {
		if abs := absolutize(candidate, base); abs != "" {
			out = append(out, abs)
		}
	}
	return dedupeExcluding(out, baseURL)
}

func genericRules(doc *goquery.Document, body []byte) []string {
	var out []string

	// Anchor hrefs whose path carries ".pdf".
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		path := href
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		if strings.Contains(strings.ToLower(path), ".pdf") {
			out = append(out, href)
		}
	})

	// Highwire-style citation metadata.
	doc.Find(`meta[name="citation_pdf_url"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok && content != "" {
			out = append(out, content)
		}
	})

	// Script-embedded PDF URLs.
	for _, m := range jsPDFVarRe.FindAllSubmatch(body, -1) {
		out = append(out, string(m[1]))
	}

	return out
}

func parseIEEE(_ *goquery.Document, body []byte) []string {
	var out []string
	for _, m := range ieeeArnumberRe.FindAllSubmatch(body, -1) {
		out = append(out, ieeeCandidates(string(m[1]))[1:]...)
	}
	return out
}

func parseScienceDirect(_ *goquery.Document, body []byte) []string {
	var out []string
	for _, m := range elsevierPIIRe.FindAllSubmatch(body, -1) {
		out = append(out, "https://www.sciencedirect.com/science/article/pii/"+string(m[1])+"/pdfft?isDTMRedir=true&download=true")
	}
	return out
}

func hostOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// absolutize resolves candidate against base and enforces http/https.
func absolutize(candidate string, base *url.URL) string {
	ref, err := url.Parse(strings.TrimSpace(candidate))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
