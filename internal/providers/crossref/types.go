package crossref

import "encoding/json"

// SearchResponse is the /works list envelope.
type SearchResponse struct {
	Status  string        `json:"status"`
	Message SearchMessage `json:"message"`
}

// SearchMessage holds the result list.
type SearchMessage struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// WorkResponse is the single-work envelope returned by /works/{doi}.
type WorkResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is one CrossRef work record.
type Work struct {
	DOI            string       `json:"DOI"`
	Title          StringList   `json:"title"`
	Author         []Author     `json:"author"`
	Abstract       string       `json:"abstract"`
	URL            string       `json:"URL"`
	ContainerTitle StringList   `json:"container-title"`
	Published      *DateParts   `json:"published"`
	PublishedPrint *DateParts   `json:"published-print"`
	PublishedOther *DateParts   `json:"published-online"`
	Issued         *DateParts   `json:"issued"`
	CitedByCount   int          `json:"is-referenced-by-count"`
	Link           []LinkTarget `json:"link"`
}

// Author is one work author.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// DateParts is CrossRef's nested date representation.
type DateParts struct {
	Parts [][]int `json:"date-parts"`
}

// Year returns the year component, or 0 when absent.
func (d *DateParts) Year() int {
	if d == nil || len(d.Parts) == 0 || len(d.Parts[0]) == 0 {
		return 0
	}
	return d.Parts[0][0]
}

// LinkTarget is a full-text link advertised by the publisher.
type LinkTarget struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// StringList accepts both a JSON array of strings and a bare string for
// fields some publishers serialize inconsistently.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = StringList{single}
	return nil
}

// First returns the first element, or "".
func (s StringList) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
