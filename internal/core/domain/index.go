package domain

// IndexResult reports the outcome of an index upsert.
type IndexResult struct {
	// Success is false only when the document ID was empty.
	Success bool `json:"success"`

	// UniqueTermCount is the number of distinct terms indexed.
	UniqueTermCount int `json:"unique_term_count"`

	// TotalTerms is the number of tokens indexed.
	TotalTerms int `json:"total_terms"`
}

// IndexHit is a single lexical search result.
type IndexHit struct {
	// DocID is the indexed entry ID (a chunk ID for ingested documents).
	DocID string `json:"doc_id"`

	// Content is the indexed text.
	Content string `json:"content"`

	// Metadata is the metadata stored with the entry.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Score is the cosine similarity to the query, in (0,1].
	Score float64 `json:"score"`

	// MatchedTerms lists query terms present in the entry.
	MatchedTerms []string `json:"matched_terms"`
}

// IndexStats summarises the lexical index.
type IndexStats struct {
	DocumentCount           int     `json:"document_count"`
	TotalTerms              int     `json:"total_terms"`
	AverageTermsPerDocument float64 `json:"average_terms_per_document"`
	VocabularySize          int     `json:"vocabulary_size"`
}

// QualityReport describes consistency between the document store and the index.
type QualityReport struct {
	// Documents is the number of documents in the durable store.
	Documents int `json:"documents"`

	// Chunks is the number of chunks in the durable store.
	Chunks int `json:"chunks"`

	// IndexedEntries is the number of entries in the lexical index.
	IndexedEntries int `json:"indexed_entries"`

	// EmptyDocuments lists documents that produced no chunks.
	EmptyDocuments []string `json:"empty_documents,omitempty"`

	// MissingFromIndex lists stored chunk IDs absent from the index.
	MissingFromIndex []string `json:"missing_from_index,omitempty"`

	// Orphaned lists index entries with no stored chunk.
	Orphaned []string `json:"orphaned,omitempty"`
}

// Healthy returns true when store and index agree.
func (r *QualityReport) Healthy() bool {
	return len(r.MissingFromIndex) == 0 && len(r.Orphaned) == 0
}
