package driven

import (
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryCache holds recent answers keyed by question and mode.
// Implementations must store and return copies; callers may mutate results.
type QueryCache interface {
	// Get returns a cached result if present and unexpired.
	Get(key string) (*domain.QueryResult, bool)

	// Put stores a result. A non-positive ttl uses the cache default.
	Put(key string, result *domain.QueryResult, ttl time.Duration)

	// EvictAll drops every entry.
	EvictAll()

	// Len returns the number of live entries.
	Len() int
}
