package domain

import (
	"fmt"
	"strings"
)

// QueryMode selects how a question is answered.
type QueryMode string

const (
	// QueryModeNLP answers with the bare question, no retrieval.
	QueryModeNLP QueryMode = "NLP"

	// QueryModeRAG retrieves chunks and injects them as context.
	QueryModeRAG QueryMode = "RAG"

	// QueryModeAuto lets the router decide between NLP and RAG.
	QueryModeAuto QueryMode = "AUTO"
)

// String returns the string representation of the mode.
func (m QueryMode) String() string {
	return string(m)
}

// IsValid returns true if the mode is a known value.
func (m QueryMode) IsValid() bool {
	switch m {
	case QueryModeNLP, QueryModeRAG, QueryModeAuto:
		return true
	default:
		return false
	}
}

// IsResolved returns true for modes that can be executed directly.
func (m QueryMode) IsResolved() bool {
	return m == QueryModeNLP || m == QueryModeRAG
}

// ParseQueryMode converts user input into a QueryMode.
// Matching is case-insensitive; empty input means AUTO.
func ParseQueryMode(s string) (QueryMode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return QueryModeAuto, nil
	}
	m := QueryMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown query mode %q", ErrInvalidInput, s)
	}
	return m, nil
}

// DefaultTopK is the number of chunks retrieved in RAG mode when unspecified.
const DefaultTopK = 3

// QueryRequest is a single question submitted to the orchestrator.
type QueryRequest struct {
	// Question is the natural-language question.
	Question string

	// Mode is NLP, RAG or AUTO. Empty means AUTO.
	Mode QueryMode

	// TopK is the number of chunks to retrieve in RAG mode.
	TopK int

	// SessionID groups history records. Generated when empty.
	SessionID string
}

// SourceReference identifies a chunk used as context for an answer.
type SourceReference struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Title      string  `json:"title,omitempty"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// QueryResult is the answer produced for one question.
type QueryResult struct {
	// Answer is the generated (or fallback) text.
	Answer string `json:"answer"`

	// Mode is the resolved mode, never AUTO.
	Mode QueryMode `json:"mode"`

	// Sources lists retrieved chunks in rank order. Empty for NLP.
	Sources []SourceReference `json:"sources"`

	// ResponseTimeMs is wall-clock time spent answering.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// FromCache is true when the result was served from the query cache.
	FromCache bool `json:"from_cache"`

	// Degraded is true when RAG retrieval found nothing and the bare
	// question was sent instead.
	Degraded bool `json:"degraded"`

	// Fallback is true when Answer is a fixed fallback string.
	Fallback bool `json:"fallback"`

	// Routing is the router's decision when the mode was AUTO.
	Routing *RoutingDecision `json:"routing,omitempty"`
}

// Clone returns a deep copy so cached values are never shared.
func (r *QueryResult) Clone() *QueryResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Sources = append([]SourceReference(nil), r.Sources...)
	if c.Sources == nil {
		c.Sources = []SourceReference{}
	}
	if r.Routing != nil {
		rd := r.Routing.Clone()
		c.Routing = &rd
	}
	return &c
}

// RoutingDecision records why a question was routed to NLP or RAG.
type RoutingDecision struct {
	// Mode is NLP or RAG.
	Mode QueryMode `json:"mode"`

	// Confidence that the question is conversational, in [0,1].
	Confidence float64 `json:"confidence"`

	// MatchedKeywords lists conversational keywords found in the question.
	MatchedKeywords []string `json:"matched_keywords"`

	// MatchedPatterns lists the names of whole-question patterns that matched.
	MatchedPatterns []string `json:"matched_patterns"`

	// Reason is a human-readable explanation.
	Reason string `json:"reason"`
}

// Clone returns a copy with independent slices.
func (d RoutingDecision) Clone() RoutingDecision {
	d.MatchedKeywords = append([]string(nil), d.MatchedKeywords...)
	d.MatchedPatterns = append([]string(nil), d.MatchedPatterns...)
	return d
}
