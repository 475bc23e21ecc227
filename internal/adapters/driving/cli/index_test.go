package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestIndexStatsCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index", "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed chunks:     4")
	assert.Contains(t, out, "Vocabulary size:    55")
	assert.NotContains(t, out, "Data quality")
}

func TestIndexStatsCmd_Check(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("index", "stats", "--check")

		require.NoError(t, err)
		assert.Contains(t, out, "Missing from index: (none)")
		assert.Contains(t, out, "Index is consistent with the store.")
	})

	t.Run("unhealthy", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.report = &domain.QualityReport{
			Documents:        3,
			EmptyDocuments:   []string{"empty"},
			MissingFromIndex: []string{"guide#2"},
			Orphaned:         []string{"ghost#0"},
		}

		out, err := execute("index", "stats", "--check")

		require.NoError(t, err)
		assert.Contains(t, out, "Empty documents:    empty")
		assert.Contains(t, out, "Missing from index: guide#2")
		assert.Contains(t, out, "Orphaned entries:   ghost#0")
		assert.Contains(t, out, "index rebuild")
	})

	t.Run("json", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute("index", "stats", "--check", "--json")
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, true, payload["healthy"])
		assert.Contains(t, payload, "quality")
	})
}

func TestIndexRebuildCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.rebuilt = 9

	out, err := execute("index", "rebuild")

	require.NoError(t, err)
	assert.Contains(t, out, "Rebuilt index with 9 chunk(s)")
}

func TestIndexSearchCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index", "search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches.")

	ts.ingest.hits = []domain.IndexHit{{DocID: "guide#0", Content: "rollback steps", Score: 1.5, MatchedTerms: []string{"rollback"}}}
	out, err = execute("index", "search", "rollback")
	require.NoError(t, err)
	assert.Contains(t, out, "1. guide#0 (score 1.500, terms: rollback)")
}

func TestIndexSearchCmd_TopKFlag(t *testing.T) {
	flag := indexSearchCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}
