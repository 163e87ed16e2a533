package europepmc

// SearchResponse is the REST search envelope.
type SearchResponse struct {
	HitCount   int        `json:"hitCount"`
	ResultList ResultList `json:"resultList"`
}

// ResultList holds the search results.
type ResultList struct {
	Result []Result `json:"result"`
}

// Result is one Europe PMC article record.
type Result struct {
	ID              string           `json:"id"`
	Source          string           `json:"source"`
	PMID            string           `json:"pmid"`
	PMCID           string           `json:"pmcid"`
	DOI             string           `json:"doi"`
	Title           string           `json:"title"`
	AuthorString    string           `json:"authorString"`
	AuthorList      *AuthorList      `json:"authorList"`
	JournalTitle    string           `json:"journalTitle"`
	JournalInfo     *JournalInfo     `json:"journalInfo"`
	PubYear         string           `json:"pubYear"`
	AbstractText    string           `json:"abstractText"`
	CitedByCount    int              `json:"citedByCount"`
	FullTextURLList *FullTextURLList `json:"fullTextUrlList"`
}

// AuthorList holds structured author entries.
type AuthorList struct {
	Author []Author `json:"author"`
}

// Author is one structured author.
type Author struct {
	FullName string `json:"fullName"`
}

// JournalInfo nests the journal record.
type JournalInfo struct {
	Journal Journal `json:"journal"`
}

// Journal holds the venue title.
type Journal struct {
	Title string `json:"title"`
}

// FullTextURLList holds the advertised full-text locations.
type FullTextURLList struct {
	FullTextURL []FullTextURL `json:"fullTextUrl"`
}

// FullTextURL is one full-text location.
type FullTextURL struct {
	Availability  string `json:"availability"`
	DocumentStyle string `json:"documentStyle"`
	Site          string `json:"site"`
	URL           string `json:"url"`
}
