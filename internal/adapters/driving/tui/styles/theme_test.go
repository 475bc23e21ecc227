package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, theme.Primary)
	assert.NotEqual(t, theme.RAG, theme.NLP)
}

func TestNewStyles_NilTheme(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()

	require.NotNil(t, s)
	assert.NotNil(t, s.Theme())
}

func TestStyles_Mode(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Mode(domain.QueryModeRAG), "RAG")
	assert.Contains(t, s.Mode(domain.QueryModeNLP), "NLP")
	assert.Contains(t, s.Mode(domain.QueryModeAuto), "AUTO")
}
