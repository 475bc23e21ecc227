package domain

import "time"

// HistoryRecord is a persisted trace of one answered question.
type HistoryRecord struct {
	// ID is assigned by the history store on append.
	ID int64 `json:"id"`

	// SessionID groups records from one conversation.
	SessionID string `json:"session_id"`

	// Question is the question as submitted.
	Question string `json:"question"`

	// Answer is the returned answer, including fallback answers.
	Answer string `json:"answer"`

	// Mode is the resolved mode (NLP or RAG).
	Mode QueryMode `json:"mode"`

	// ResponseTimeMs is the time spent answering.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// SourceCount is the number of chunks used as context.
	SourceCount int `json:"source_count"`

	// Fallback is true when the answer was a fallback string.
	Fallback bool `json:"fallback"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at"`
}

// HistoryFilter narrows a history query. Zero values match everything.
type HistoryFilter struct {
	// Mode restricts to NLP or RAG records.
	Mode QueryMode

	// SessionID restricts to one session.
	SessionID string
}

// Default and maximum history page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// PageRequest selects a page of results. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
}

// Normalise clamps the request to valid bounds.
func (p PageRequest) Normalise() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of records to skip.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// HistoryPage is one page of history records, newest first.
type HistoryPage struct {
	Records []HistoryRecord `json:"records"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}

// TotalPages returns the number of pages for the current size.
func (p *HistoryPage) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// HistoryStats summarises the query history.
type HistoryStats struct {
	TotalQueries      int     `json:"total_queries"`
	NLPQueries        int     `json:"nlp_queries"`
	RAGQueries        int     `json:"rag_queries"`
	NLPPercentage     float64 `json:"nlp_percentage"`
	RAGPercentage     float64 `json:"rag_percentage"`
	FallbackQueries   int     `json:"fallback_queries"`
	AverageResponseMs float64 `json:"average_response_ms"`
}

// ComputePercentages fills the percentage fields from the counts.
func (s *HistoryStats) ComputePercentages() {
	if s.TotalQueries == 0 {
		s.NLPPercentage = 0
		s.RAGPercentage = 0
		return
	}
	s.NLPPercentage = float64(s.NLPQueries) * 100 / float64(s.TotalQueries)
	s.RAGPercentage = float64(s.RAGQueries) * 100 / float64(s.TotalQueries)
}
