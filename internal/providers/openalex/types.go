package openalex

import (
	"sort"
	"strings"
)

// SearchResponse is the /works list envelope.
type SearchResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta holds result counts.
type Meta struct {
	Count int `json:"count"`
}

// Work is one OpenAlex work record.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	CitedByCount          int              `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PrimaryLocation       *Location        `json:"primary_location"`
	OpenAccess            *OpenAccess      `json:"open_access"`
	Authorships           []Authorship     `json:"authorships"`
}

// Location is a hosted copy of the work.
type Location struct {
	LandingPageURL string          `json:"landing_page_url"`
	PDFURL         string          `json:"pdf_url"`
	Source         *LocationSource `json:"source"`
}

// LocationSource identifies the hosting venue.
type LocationSource struct {
	DisplayName string `json:"display_name"`
}

// OpenAccess holds the OA status of the work.
type OpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

// Authorship binds an author to the work.
type Authorship struct {
	Author AuthorRef `json:"author"`
}

// AuthorRef is the author identity inside an authorship.
type AuthorRef struct {
	DisplayName string `json:"display_name"`
}

// Abstract rebuilds the plain-text abstract from the inverted index
// OpenAlex ships instead of the text itself.
func (w *Work) Abstract() string {
	if len(w.AbstractInvertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var words []posWord
	for word, positions := range w.AbstractInvertedIndex {
		for _, p := range positions {
			words = append(words, posWord{pos: p, word: word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.word
	}
	return strings.Join(parts, " ")
}
