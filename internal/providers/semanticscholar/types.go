package semanticscholar

// SearchResponse is the paper search envelope.
type SearchResponse struct {
	Total int           `json:"total"`
	Next  int           `json:"next"`
	Data  []PaperResult `json:"data"`
}

// PaperResult is one paper in the Graph API response.
type PaperResult struct {
	PaperID       string         `json:"paperId"`
	ExternalIDs   *ExternalIDs   `json:"externalIds"`
	Title         string         `json:"title"`
	Abstract      string         `json:"abstract"`
	Year          int            `json:"year"`
	Venue         string         `json:"venue"`
	URL           string         `json:"url"`
	CitationCount int            `json:"citationCount"`
	IsOpenAccess  bool           `json:"isOpenAccess"`
	OpenAccessPDF *OpenAccessPDF `json:"openAccessPdf"`
	Authors       []Author       `json:"authors"`
}

// ExternalIDs holds cross-system identifiers.
type ExternalIDs struct {
	DOI           string `json:"DOI"`
	ArXiv         string `json:"ArXiv"`
	PubMed        string `json:"PubMed"`
	PubMedCentral string `json:"PubMedCentral"`
}

// OpenAccessPDF holds the open access PDF location.
type OpenAccessPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Author is an author entry.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
