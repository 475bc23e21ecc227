package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// HistoryStore persists answered questions.
type HistoryStore interface {
	// Append stores a record and returns its assigned ID.
	Append(ctx context.Context, record *domain.HistoryRecord) (int64, error)

	// Query returns one page of records matching the filter, newest first.
	Query(ctx context.Context, filter domain.HistoryFilter, page domain.PageRequest) (*domain.HistoryPage, error)

	// Get retrieves a record by ID.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.HistoryRecord, error)

	// DeleteByID removes one record.
	// Returns domain.ErrNotFound if absent.
	DeleteByID(ctx context.Context, id int64) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// DeleteBefore removes records created before the cutoff and
	// returns how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Stats summarises all records.
	Stats(ctx context.Context) (*domain.HistoryStats, error)
}
