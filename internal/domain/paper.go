package domain

import "fmt"

// Placeholder values used when a PubMed record is missing a field. Keeping
// them as exported constants lets the parser, the ranker and the tests agree
// on the exact strings.
const (
	PlaceholderTitle    = "No title"
	PlaceholderAbstract = "No abstract available"
	PlaceholderJournal  = "Unknown journal"
	PlaceholderYear     = "Unknown"
	PlaceholderPMID     = "Unknown"
)

// MaxAuthors is the number of authors retained per paper, in byline order.
const MaxAuthors = 5

// Paper represents a single article returned by a literature search.
// RelevanceScore and RelevanceReason stay at their zero values until the
// ranking stage assigns them.
type Paper struct {
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract"`
	Journal         string   `json:"journal"`
	Year            string   `json:"year"`
	PMID            string   `json:"pmid"`
	RelevanceScore  float64  `json:"relevance_score"`
	RelevanceReason string   `json:"relevance_reason,omitempty"`
}

// SourceURL derives the canonical PubMed URL for the paper. It is computed
// from the PMID on demand and never stored.
func (p *Paper) SourceURL() string {
	return fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", p.PMID)
}

// HasPMID reports whether the paper carries a real PubMed identifier rather
// than the placeholder.
func (p *Paper) HasPMID() bool {
	return p.PMID != "" && p.PMID != PlaceholderPMID
}
