package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryService answers questions, routing between direct generation and
// retrieval-augmented generation.
type QueryService interface {
	// Query answers a question.
	// Only a blank question or an already-cancelled context produce an
	// error; every other failure is reported through the result.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)
}
