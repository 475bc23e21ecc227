package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func testHistory() []domain.HistoryRecord {
	return []domain.HistoryRecord{
		{ID: 2, Question: "what is in the guide", Answer: "Deployment steps.", Mode: domain.QueryModeRAG,
			ResponseTimeMs: 40, SourceCount: 3, CreatedAt: testTime},
		{ID: 1, SessionID: "s-1", Question: "hello", Answer: domain.FallbackAnswer, Mode: domain.QueryModeNLP,
			Fallback: true, CreatedAt: testTime},
	}
}

func TestHistoryListCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.history.records = testHistory()

	out, err := execute("history", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "what is in the guide")
	assert.Contains(t, out, "hello (fallback)")
	assert.Contains(t, out, "Page 1 of 1 (2 records)")
	assert.Equal(t, domain.PageRequest{Page: 0, Size: domain.DefaultPageSize}, ts.history.page)
}

func TestHistoryListCmd_FiltersAndPaging(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("history", "list", "--mode", "rag", "--session", "s-1", "--page", "3", "--size", "5")

	require.NoError(t, err)
	assert.Equal(t, domain.HistoryFilter{Mode: domain.QueryModeRAG, SessionID: "s-1"}, ts.history.filter)
	assert.Equal(t, domain.PageRequest{Page: 2, Size: 5}, ts.history.page)
}

func TestHistoryListCmd_RejectsAutoMode(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("history", "list", "--mode", "auto")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistoryListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No history.")
}

func TestHistoryListCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.history.records = testHistory()

	out, err := execute("history", "list", "--json")
	require.NoError(t, err)

	var page domain.HistoryPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, int64(2), page.Records[0].ID)
}

func TestHistoryShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.history.records = testHistory()

	out, err := execute("history", "show", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "Session:  s-1")
	assert.Contains(t, out, "Fallback: true")
	assert.Contains(t, out, "Q: hello")
}

func TestHistoryShowCmd_InvalidID(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	for _, id := range []string{"abc", "0"} {
		_, err := execute("history", "show", id)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, id)
	}
}

func TestHistoryDeleteCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("history", "delete", "7")

	require.NoError(t, err)
	assert.Equal(t, int64(7), ts.history.deleted)
	assert.Contains(t, out, "Deleted history record 7")
}

func TestHistoryClearCmd(t *testing.T) {
	t.Run("cancelled without confirmation", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		rootCmd.SetIn(strings.NewReader("n\n"))

		out, err := execute("history", "clear")

		require.NoError(t, err)
		assert.False(t, ts.history.cleared)
		assert.Contains(t, out, "Cancelled.")
	})

	t.Run("confirmed at prompt", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		rootCmd.SetIn(strings.NewReader("yes\n"))

		_, err := execute("history", "clear")

		require.NoError(t, err)
		assert.True(t, ts.history.cleared)
	})

	t.Run("yes flag skips prompt", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("history", "clear", "-y")

		require.NoError(t, err)
		assert.True(t, ts.history.cleared)
		assert.Contains(t, out, "History cleared.")
	})
}

func TestHistoryStatsCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("history", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Total queries:     4")
	assert.Contains(t, out, "RAG queries:       3 (75.0%)")
	assert.Contains(t, out, "NLP queries:       1 (25.0%)")
	assert.Contains(t, out, "Avg response time: 250ms")
}

func TestHistoryPruneCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.history.pruned = 12

	out, err := execute("history", "prune")

	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 12 history record(s)")
}
