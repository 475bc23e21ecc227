package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Router implements the interface.
var _ driving.RouterService = (*Router)(nil)

// conversationalKeywords mark questions that can be answered without the corpus.
// Matched as substrings of the normalised question, not as words: "hi",
// "story" and "sing" also fire inside "history", "which" and "processing".
// Routing depends on this, see TestRouter_Classify_SubstringKeywords.
var conversationalKeywords = []string{
	// Greetings and small talk
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"how are you", "what's up", "thanks", "thank you", "bye", "goodbye",
	// Questions about the assistant
	"who are you", "what can you do", "help me", "introduce yourself",
	"your name", "what is your", "tell me about yourself",
	// General knowledge
	"weather", "temperature", "forecast", "time now", "current time",
	"latest news", "today's news", "what happened",
	// Arithmetic
	"calculate", "compute",
	// Entertainment
	"tell me a joke", "funny", "story", "sing",
}

// conversationalPatterns must match the whole normalised question.
var conversationalPatterns = compileWhole(
	`(hi|hello|hey|good morning|good afternoon|good evening).*`,
	`.*how are you.*`,
	`.*who are you.*`,
	`.*what('s| is) your name.*`,
	`.*tell me (a )?joke.*`,
	`.*what('s| is) the weather.*`,
	`.*what time is it.*`,
)

func compileWhole(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`^(?:` + expr + `)$`)
	}
	return out
}

// Routing weights.
const (
	keywordWeight   = 0.3
	keywordCap      = 0.6
	patternWeight   = 0.4
	patternCap      = 0.8
	nlpThreshold    = 0.5
	reasonEmpty     = "empty query"
	reasonRetrieval = "Default to RAG mode for document search"
)

// Router classifies questions as conversational (NLP) or needing retrieval (RAG).
// Retrieval is the default; only a strong conversational signal selects NLP.
type Router struct{}

// NewRouter creates a router.
func NewRouter() *Router {
	return &Router{}
}

// Classify returns the routing decision for a question.
func (r *Router) Classify(question string) domain.RoutingDecision {
	normalised := strings.ToLower(strings.TrimSpace(question))
	if normalised == "" {
		return domain.RoutingDecision{
			Mode:            domain.QueryModeNLP,
			Confidence:      0,
			MatchedKeywords: []string{},
			MatchedPatterns: []string{},
			Reason:          reasonEmpty,
		}
	}

	keywords := []string{}
	for _, kw := range conversationalKeywords {
		if strings.Contains(normalised, kw) {
			keywords = append(keywords, kw)
		}
	}

	patterns := []string{}
	for i, re := range conversationalPatterns {
		if re.MatchString(normalised) {
			patterns = append(patterns, fmt.Sprintf("NLP-Pattern-%d", i+1))
		}
	}

	confidence := conversationalConfidence(len(keywords), len(patterns))

	decision := domain.RoutingDecision{
		Mode:            domain.QueryModeRAG,
		Confidence:      confidence,
		MatchedKeywords: keywords,
		MatchedPatterns: patterns,
		Reason:          reasonRetrieval,
	}
	if confidence > nlpThreshold {
		decision.Mode = domain.QueryModeNLP
		decision.Reason = fmt.Sprintf(
			"Casual conversation detected: %d NLP keywords and %d NLP patterns matched",
			len(keywords), len(patterns),
		)
	}

	logger.Debug("router: %q -> %s (confidence %.2f, keywords %v, patterns %v)",
		question, decision.Mode, confidence, keywords, patterns)

	return decision
}

// DetermineQueryMode returns only the chosen mode.
func (r *Router) DetermineQueryMode(question string) domain.QueryMode {
	return r.Classify(question).Mode
}

func conversationalConfidence(keywords, patterns int) float64 {
	keywordScore := math.Min(keywordWeight*float64(keywords), keywordCap)
	patternScore := math.Min(patternWeight*float64(patterns), patternCap)
	return math.Min(keywordScore+patternScore, 1.0)
}
