package dblp

import "encoding/json"

// SearchResponse is the publication search envelope.
type SearchResponse struct {
	Result Result `json:"result"`
}

// Result wraps the hit list.
type Result struct {
	Hits Hits `json:"hits"`
}

// Hits holds the matched publications. Total arrives as a string.
type Hits struct {
	Total string `json:"@total"`
	Hit   []Hit  `json:"hit"`
}

// Hit is one search hit.
type Hit struct {
	Info Info `json:"info"`
}

// Info is the publication record. DBLP serializes one-element lists as
// bare objects or strings, so the list-shaped fields use tolerant types.
type Info struct {
	Title   string      `json:"title"`
	Authors *AuthorList `json:"authors"`
	Year    string      `json:"year"`
	Venue   StringOrList `json:"venue"`
	DOI     string      `json:"doi"`
	EE      StringOrList `json:"ee"`
	URL     string      `json:"url"`
}

// AuthorList holds the author field, which is a list, a single object,
// or a bare string depending on the record.
type AuthorList struct {
	Author AuthorField `json:"author"`
}

// AuthorField is the tolerant author container.
type AuthorField []Author

// UnmarshalJSON implements json.Unmarshaler for list, object, and string
// wire shapes.
func (f *AuthorField) UnmarshalJSON(data []byte) error {
	var list []Author
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single Author
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = AuthorField{single}
	return nil
}

// Author is one author entry. The name lives in the "text" key when the
// entry is an object, or is the whole value when it is a string.
type Author struct {
	Text string `json:"text"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Author) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Text = s
		return nil
	}
	type plain Author
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Author(p)
	return nil
}

// StringOrList accepts both a bare string and a list of strings.
type StringOrList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = StringOrList{single}
	return nil
}

// First returns the first element, or "".
func (s StringOrList) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
