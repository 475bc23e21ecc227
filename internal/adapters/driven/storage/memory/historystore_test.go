package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func seedHistory(t *testing.T, store *HistoryStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		mode := domain.QueryModeRAG
		if i%2 == 0 {
			mode = domain.QueryModeNLP
		}
		_, err := store.Append(context.Background(), &domain.HistoryRecord{
			SessionID:      fmt.Sprintf("s%d", i%3),
			Question:       fmt.Sprintf("q%d", i),
			Answer:         "a",
			Mode:           mode,
			ResponseTimeMs: int64(10 * (i + 1)),
			Fallback:       i == 0,
		})
		require.NoError(t, err)
	}
}

func TestHistoryStore_Append_AssignsIDs(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	id1, err := store.Append(ctx, &domain.HistoryRecord{Question: "one"})
	require.NoError(t, err)
	id2, err := store.Append(ctx, &domain.HistoryRecord{Question: "two"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	rec, err := store.Get(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, "two", rec.Question)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestHistoryStore_Append_Nil(t *testing.T) {
	_, err := NewHistoryStore().Append(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistoryStore_Query_NewestFirstAndPaged(t *testing.T) {
	store := NewHistoryStore()
	seedHistory(t, store, 5)

	page, err := store.Query(context.Background(), domain.HistoryFilter{}, domain.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Records, 2)
	assert.Equal(t, "q4", page.Records[0].Question)
	assert.Equal(t, "q3", page.Records[1].Question)

	last, err := store.Query(context.Background(), domain.HistoryFilter{}, domain.PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)
	require.Len(t, last.Records, 1)
	assert.Equal(t, "q0", last.Records[0].Question)

	beyond, err := store.Query(context.Background(), domain.HistoryFilter{}, domain.PageRequest{Page: 9, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Records)
	assert.Equal(t, 5, beyond.Total)
}

func TestHistoryStore_Query_Filters(t *testing.T) {
	store := NewHistoryStore()
	seedHistory(t, store, 6)
	ctx := context.Background()

	nlp, err := store.Query(ctx, domain.HistoryFilter{Mode: domain.QueryModeNLP}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, nlp.Total)
	for _, r := range nlp.Records {
		assert.Equal(t, domain.QueryModeNLP, r.Mode)
	}

	session, err := store.Query(ctx, domain.HistoryFilter{SessionID: "s1"}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, session.Total)

	both, err := store.Query(ctx, domain.HistoryFilter{Mode: domain.QueryModeRAG, SessionID: "s1"}, domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, both.Total)
	assert.Equal(t, "q1", both.Records[0].Question)
}

func TestHistoryStore_Query_NormalisesPage(t *testing.T) {
	store := NewHistoryStore()
	seedHistory(t, store, 1)

	page, err := store.Query(context.Background(), domain.HistoryFilter{}, domain.PageRequest{Page: -1, Size: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, domain.DefaultPageSize, page.Size)
	assert.Len(t, page.Records, 1)
}

func TestHistoryStore_DeleteByID(t *testing.T) {
	store := NewHistoryStore()
	seedHistory(t, store, 3)
	ctx := context.Background()

	require.NoError(t, store.DeleteByID(ctx, 2))
	_, err := store.Get(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteByID(ctx, 2), domain.ErrNotFound)

	page, err := store.Query(ctx, domain.HistoryFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestHistoryStore_DeleteAll(t *testing.T) {
	store := NewHistoryStore()
	seedHistory(t, store, 3)
	ctx := context.Background()

	require.NoError(t, store.DeleteAll(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalQueries)

	id, err := store.Append(ctx, &domain.HistoryRecord{Question: "after"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
}

func TestHistoryStore_DeleteBefore(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := store.Append(ctx, &domain.HistoryRecord{
			Question:  fmt.Sprintf("q%d", i),
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	removed, err := store.DeleteBefore(ctx, base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	page, err := store.Query(ctx, domain.HistoryFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "q3", page.Records[0].Question)
	assert.Equal(t, "q2", page.Records[1].Question)
}

func TestHistoryStore_Stats(t *testing.T) {
	store := NewHistoryStore()
	seedHistory(t, store, 4)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalQueries)
	assert.Equal(t, 2, stats.NLPQueries)
	assert.Equal(t, 2, stats.RAGQueries)
	assert.Equal(t, 1, stats.FallbackQueries)
	assert.InDelta(t, 50.0, stats.NLPPercentage, 1e-9)
	assert.InDelta(t, 50.0, stats.RAGPercentage, 1e-9)
	assert.InDelta(t, 25.0, stats.AverageResponseMs, 1e-9)
}

func TestHistoryStore_Stats_Empty(t *testing.T) {
	stats, err := NewHistoryStore().Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalQueries)
	assert.Zero(t, stats.NLPPercentage)
	assert.Zero(t, stats.AverageResponseMs)
}
