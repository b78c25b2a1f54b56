package models

// DocumentChunk is the canonical record stored in the search index: one
// embedded segment of a source document. Enrichment rewrites a chunk as a
// whole record, so every indexed field must be present here.
type DocumentChunk struct {
	ChunkID       string    `json:"chunk_id"`
	DocumentID    string    `json:"document_id"`
	DocumentTitle string    `json:"document_title,omitempty"`
	ContentText   string    `json:"content_text"`
	Embedding     []float32 `json:"embedding,omitempty"`
	Published     string    `json:"published,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	TypePrimary   string    `json:"type_primary,omitempty"`
	TypeSecondary string    `json:"type_secondary,omitempty"`
	Source        string    `json:"source,omitempty"`
	URL           string    `json:"url,omitempty"`
	Extension     string    `json:"extension,omitempty"`
	Position      int       `json:"position,omitempty"`
	LastModified  string    `json:"lastmodified,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	Label         string    `json:"label,omitempty"`
}

// TimelineBucket groups the best chunk per document for one publication day.
// DocumentIDs carries the union of document ids across the whole timeline and
// is populated on the first bucket only.
type TimelineBucket struct {
	Date        string          `json:"date"`
	Documents   []DocumentChunk `json:"documents"`
	DocumentIDs []string        `json:"document_ids,omitempty"`
}

// SearchQuery is the assembled hybrid query: query text, its embedding, and
// the optional structured restrictions. Date bounds are "2006-01-02" strings;
// an empty string means unbounded.
type SearchQuery struct {
	Text           string
	Vector         []float32
	From           string
	Until          string
	Publishers     []string
	TypesPrimary   []string
	TypesSecondary []string
}

// PrimaryTypeCount is a facet entry for the primary type classification.
type PrimaryTypeCount struct {
	TypePrimary  string `json:"type_primary"`
	AmountOfDocs int64  `json:"amount_of_docs"`
}

// SecondaryTypeCount is a facet entry for the secondary type classification.
type SecondaryTypeCount struct {
	TypeSecondary string `json:"type_secondary"`
	AmountOfDocs  int64  `json:"amount_of_docs"`
}

// PublisherCount is a facet entry for the publishing body.
type PublisherCount struct {
	Publisher    string `json:"publisher"`
	AmountOfDocs int64  `json:"amount_of_docs"`
}

// Facets bundles the per-field value counts driving the filter options.
type Facets struct {
	TypePrimary   []PrimaryTypeCount   `json:"type_primary"`
	TypeSecondary []SecondaryTypeCount `json:"type_secondary"`
	Publishers    []PublisherCount     `json:"publishers"`
}
