package unpaywall

// SearchResponse is the /v2/search envelope.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult wraps one matched DOI object with its match score.
type SearchResult struct {
	Response DOIObject `json:"response"`
	Score    float64   `json:"score"`
}

// DOIObject is Unpaywall's record for one DOI.
type DOIObject struct {
	DOI            string       `json:"doi"`
	Title          string       `json:"title"`
	Year           int          `json:"year"`
	Genre          string       `json:"genre"`
	JournalName    string       `json:"journal_name"`
	IsOA           bool         `json:"is_oa"`
	DOIURL         string       `json:"doi_url"`
	BestOALocation *OALocation  `json:"best_oa_location"`
	OALocations    []OALocation `json:"oa_locations"`
	ZAuthors       []ZAuthor    `json:"z_authors"`
}

// OALocation is one known open access copy.
type OALocation struct {
	URL       string `json:"url"`
	URLForPDF string `json:"url_for_pdf"`
	HostType  string `json:"host_type"`
	Version   string `json:"version"`
}

// ZAuthor is one author in Unpaywall's CrossRef-derived author list.
type ZAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// PDFURL returns the best open access PDF URL, preferring the best
// location and falling back to the first location carrying a PDF link.
func (d *DOIObject) PDFURL() string {
	if d.BestOALocation != nil && d.BestOALocation.URLForPDF != "" {
		return d.BestOALocation.URLForPDF
	}
	for _, loc := range d.OALocations {
		if loc.URLForPDF != "" {
			return loc.URLForPDF
		}
	}
	return ""
}
