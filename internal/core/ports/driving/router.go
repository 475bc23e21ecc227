package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// RouterService decides whether a question is conversational (NLP) or
// needs document retrieval (RAG).
type RouterService interface {
	// Classify returns the full routing decision for a question.
	Classify(question string) domain.RoutingDecision

	// DetermineQueryMode returns only the chosen mode.
	DetermineQueryMode(question string) domain.QueryMode
}
