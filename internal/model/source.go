package model

// Source represents an external document that may support one or more
// claims. The ID is a stable hash of the normalized URL, so rediscovering
// the same document never creates a duplicate.
type Source struct {
	ID        string     `json:"id"`                   // Stable hash of normalized URL
	Title     string     `json:"title"`                // Document title
	URL       string     `json:"url"`                  // Original URL as discovered
	Authors   string     `json:"authors,omitempty"`    // Author names, comma separated
	Year      string     `json:"year,omitempty"`       // Publication year
	Type      SourceType `json:"source_type"`          // Classification by URL heuristics
	LocalPath string     `json:"local_path,omitempty"` // Set once downloaded
}

// SourceType classifies a source by URL heuristics. The label is an aid
// for reporting, not a correctness gate.
type SourceType string

const (
	SourceTypePaper         SourceType = "paper"
	SourceTypeDocumentation SourceType = "documentation"
	SourceTypeWebsite       SourceType = "website"
)

// Passage is a chunk of a source's extracted text, the unit of evidence
// retrieval. IDs take the form "{source_id}_c{index}" and are unique
// within their source.
type Passage struct {
	ID        string `json:"id"`
	SourceID  string `json:"source_id"`
	Text      string `json:"text"`
	Page      int    `json:"page"`       // Owning page number, 1-based
	StartWord int    `json:"start_word"` // Word offset within the page, inclusive
	EndWord   int    `json:"end_word"`   // Word offset within the page, exclusive
}

// SearchHit is a raw result from the external search collaborator.
type SearchHit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Authors string `json:"authors,omitempty"`
	Date    string `json:"date,omitempty"`
}
