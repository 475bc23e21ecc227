package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
// Records are kept in insertion order; IDs increase monotonically.
type HistoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []domain.HistoryRecord
	now     func() time.Time
}

// NewHistoryStore creates an empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{nextID: 1, now: time.Now}
}

// Append stores a record and returns its assigned ID.
// A zero CreatedAt is set to the current time.
func (s *HistoryStore) Append(_ context.Context, record *domain.HistoryRecord) (int64, error) {
	if record == nil {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *record
	r.ID = s.nextID
	s.nextID++
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.records = append(s.records, r)
	return r.ID, nil
}

// Query returns one page of matching records, newest first.
func (s *HistoryStore) Query(_ context.Context, filter domain.HistoryFilter, page domain.PageRequest) (*domain.HistoryPage, error) {
	page = page.Normalise()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.HistoryRecord, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if matches(&s.records[i], filter) {
			matched = append(matched, s.records[i])
		}
	}

	result := &domain.HistoryPage{
		Records: []domain.HistoryRecord{},
		Total:   len(matched),
		Page:    page.Page,
		Size:    page.Size,
	}
	start := page.Offset()
	if start >= len(matched) {
		return result, nil
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	result.Records = append(result.Records, matched[start:end]...)
	return result, nil
}

// Get retrieves a record by ID.
func (s *HistoryStore) Get(_ context.Context, id int64) (*domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		r := s.records[i]
		return &r, nil
	}
	return nil, domain.ErrNotFound
}

// DeleteByID removes one record.
func (s *HistoryStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

// DeleteAll removes every record. IDs keep increasing afterwards.
func (s *HistoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

// DeleteBefore removes records created strictly before cutoff.
func (s *HistoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// Stats summarises all records.
func (s *HistoryStore) Stats(_ context.Context) (*domain.HistoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.HistoryStats{TotalQueries: len(s.records)}
	var totalMs int64
	for i := range s.records {
		switch s.records[i].Mode {
		case domain.QueryModeNLP:
			stats.NLPQueries++
		case domain.QueryModeRAG:
			stats.RAGQueries++
		}
		if s.records[i].Fallback {
			stats.FallbackQueries++
		}
		totalMs += s.records[i].ResponseTimeMs
	}
	if stats.TotalQueries > 0 {
		stats.AverageResponseMs = float64(totalMs) / float64(stats.TotalQueries)
	}
	stats.ComputePercentages()
	return stats, nil
}

func (s *HistoryStore) indexOf(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func matches(r *domain.HistoryRecord, f domain.HistoryFilter) bool {
	if f.Mode != "" && r.Mode != f.Mode {
		return false
	}
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	return true
}
