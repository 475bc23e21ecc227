package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "handbook_chunk_3", ChunkID("handbook", 3))
}

func TestDocument_ChunkAt(t *testing.T) {
	doc := &Document{ID: "handbook", Title: "Staff Handbook"}
	extra := map[string]any{"lang": "en", MetaChunkIndex: 99}

	c := doc.ChunkAt(1, 4, "Refunds take five days.", extra)

	assert.Equal(t, "handbook_chunk_1", c.ID)
	assert.Equal(t, "handbook", c.DocumentID)
	assert.Equal(t, 1, c.Index)
	assert.Equal(t, "Refunds take five days.", c.Content)
	assert.Equal(t, map[string]any{
		"lang":          "en",
		MetaChunkIndex:  1,
		MetaTotalChunks: 4,
		MetaParentDocID: "handbook",
		MetaTitle:       "Staff Handbook",
	}, c.Metadata)

	assert.Equal(t, 99, extra[MetaChunkIndex], "caller's map is not modified")
}

func TestDocument_ChunkAt_Untitled(t *testing.T) {
	c := (&Document{ID: "note"}).ChunkAt(0, 1, "x", nil)

	assert.NotContains(t, c.Metadata, MetaTitle)
}
