package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// HistoryService exposes query history management.
type HistoryService interface {
	// List returns one page of history, newest first.
	List(ctx context.Context, filter domain.HistoryFilter, page domain.PageRequest) (*domain.HistoryPage, error)

	// Get retrieves a single record.
	Get(ctx context.Context, id int64) (*domain.HistoryRecord, error)

	// Delete removes a single record.
	Delete(ctx context.Context, id int64) error

	// Clear removes all history and evicts the query cache.
	Clear(ctx context.Context) error

	// Stats summarises the history.
	Stats(ctx context.Context) (*domain.HistoryStats, error)

	// Prune removes records older than the retention period.
	Prune(ctx context.Context) (int, error)
}
