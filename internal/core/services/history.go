package services

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService manages recorded queries.
type HistoryService struct {
	store     driven.HistoryStore
	cache     driven.QueryCache // nil: nothing to evict
	retention time.Duration
	now       func() time.Time
}

// NewHistoryService creates a history service. retentionDays <= 0 disables
// pruning.
func NewHistoryService(store driven.HistoryStore, cache driven.QueryCache, retentionDays int) *HistoryService {
	var retention time.Duration
	if retentionDays > 0 {
		retention = time.Duration(retentionDays) * 24 * time.Hour
	}
	return &HistoryService{
		store:     store,
		cache:     cache,
		retention: retention,
		now:       time.Now,
	}
}

// List returns one page of history, newest first.
func (s *HistoryService) List(
	ctx context.Context, filter domain.HistoryFilter, page domain.PageRequest,
) (*domain.HistoryPage, error) {
	if filter.Mode != "" && !filter.Mode.IsResolved() {
		// AUTO is never recorded, so filtering by it means no filter.
		filter.Mode = ""
	}
	return s.store.Query(ctx, filter, page.Normalise())
}

// Get retrieves a single record.
func (s *HistoryService) Get(ctx context.Context, id int64) (*domain.HistoryRecord, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a single record.
func (s *HistoryService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteByID(ctx, id)
}

// Clear removes all history and evicts cached answers with it.
func (s *HistoryService) Clear(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.EvictAll()
	}
	logger.Info("history: cleared")
	return nil
}

// Stats summarises the history.
func (s *HistoryService) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	return s.store.Stats(ctx)
}

// Prune removes records older than the retention period.
func (s *HistoryService) Prune(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	n, err := s.store.DeleteBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, err
	}
	logger.Debug("history: pruned %d records", n)
	return n, nil
}
