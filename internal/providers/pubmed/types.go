package pubmed

import "encoding/xml"

// ESearchResult is the esearch.fcgi XML envelope.
type ESearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDList  []string `xml:"IdList>Id"`
}

// ArticleSet is the efetch.fcgi XML envelope.
type ArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle wraps one fetched article with its identifier list.
type PubmedArticle struct {
	Citation   MedlineCitation `xml:"MedlineCitation"`
	ArticleIDs []ArticleID     `xml:"PubmedData>ArticleIdList>ArticleId"`
}

// MedlineCitation holds the bibliographic core of an article.
type MedlineCitation struct {
	PMID    string  `xml:"PMID"`
	Article Article `xml:"Article"`
}

// Article is the inner article record.
type Article struct {
	Title        string     `xml:"ArticleTitle"`
	AbstractText []string   `xml:"Abstract>AbstractText"`
	Journal      Journal    `xml:"Journal"`
	AuthorList   AuthorList `xml:"AuthorList"`
}

// Journal holds the publication venue and date.
type Journal struct {
	Title string      `xml:"Title"`
	Issue JournalDate `xml:"JournalIssue>PubDate"`
}

// JournalDate is the publication date. Year may be absent in favor of
// MedlineDate free text.
type JournalDate struct {
	Year        string `xml:"Year"`
	MedlineDate string `xml:"MedlineDate"`
}

// AuthorList holds the authors.
type AuthorList struct {
	Authors []Author `xml:"Author"`
}

// Author is one author entry.
type Author struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

// ArticleID is a typed external identifier (doi, pmc, pubmed).
type ArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}
