package biorxiv

// APIResponse is the envelope shared by the details and pub endpoints.
type APIResponse struct {
	Messages   []Message `json:"messages"`
	Collection []Preprint `json:"collection"`
}

// Message carries endpoint status and cursor metadata.
type Message struct {
	Status   string `json:"status"`
	Total    any    `json:"total"`
	Count    int    `json:"count"`
	Cursor   any    `json:"cursor"`
	Messages string `json:"messages"`
}

// Preprint is one preprint version record. Authors arrive as a single
// semicolon-separated string.
type Preprint struct {
	DOI                 string `json:"doi"`
	Title               string `json:"title"`
	Authors             string `json:"authors"`
	AuthorCorresponding string `json:"author_corresponding"`
	Date                string `json:"date"`
	Version             string `json:"version"`
	Category            string `json:"category"`
	Abstract            string `json:"abstract"`
	Server              string `json:"server"`
	Published           string `json:"published"`
}
