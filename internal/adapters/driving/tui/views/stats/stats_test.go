package stats

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

type mockHistoryService struct {
	driving.HistoryService
	err error
}

func (m *mockHistoryService) Stats(_ context.Context) (*domain.HistoryStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := &domain.HistoryStats{TotalQueries: 4, RAGQueries: 3, NLPQueries: 1, FallbackQueries: 1, AverageResponseMs: 210}
	s.ComputePercentages()
	return s, nil
}

type mockIngestService struct {
	driving.IngestService
	report *domain.QualityReport
}

func (m *mockIngestService) Stats() domain.IndexStats {
	return domain.IndexStats{DocumentCount: 12, TotalTerms: 480, AverageTermsPerDocument: 40, VocabularySize: 150}
}

func (m *mockIngestService) CheckQuality(_ context.Context) (*domain.QualityReport, error) {
	if m.report != nil {
		return m.report, nil
	}
	return &domain.QualityReport{Documents: 3, Chunks: 12, IndexedEntries: 12}, nil
}

type mockSettingsService struct {
	driving.SettingsService
}

func (mockSettingsService) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	s.Generation.Provider = domain.AIProviderOllama
	s.Generation.Model = "llama3"
	return &s, nil
}

func loaded(t *testing.T, v *View) *View {
	t.Helper()
	v.SetDimensions(140, 30)
	cmd := v.Init()
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())
	return v
}

func TestView_AllPanels(t *testing.T) {
	v := loaded(t, NewView(nil, nil, &mockHistoryService{}, &mockIngestService{}, mockSettingsService{}))

	require.NotNil(t, v.Data())
	assert.False(t, v.Loading())

	out := v.View()
	assert.Contains(t, out, "Queries")
	assert.Contains(t, out, "3 (75.0%)")
	assert.Contains(t, out, "210ms")
	assert.Contains(t, out, "Index")
	assert.Contains(t, out, "consistent")
	assert.Contains(t, out, "Ollama (local)")
	assert.Contains(t, out, "llama3")
	assert.Contains(t, out, "1000 / 200")
}

func TestView_OnlyIndex(t *testing.T) {
	v := loaded(t, NewView(nil, nil, nil, &mockIngestService{}, nil))

	out := v.View()
	assert.Nil(t, v.Data().History)
	assert.NotContains(t, out, "Total queries")
	assert.Contains(t, out, "Vocabulary")
}

func TestView_UnhealthyIndex(t *testing.T) {
	ingest := &mockIngestService{report: &domain.QualityReport{
		Documents:        1,
		MissingFromIndex: []string{"a#0", "a#1"},
		Orphaned:         []string{"b#0"},
	}}
	v := loaded(t, NewView(nil, nil, nil, ingest, nil))

	assert.Contains(t, v.View(), "2 missing, 1 orphaned")
}

func TestView_LoadError(t *testing.T) {
	v := loaded(t, NewView(nil, nil, &mockHistoryService{err: errors.New("db closed")}, nil, nil))

	assert.Contains(t, v.View(), "Error: db closed")
}

func TestView_NotLoaded(t *testing.T) {
	v := NewView(nil, nil, nil, nil, nil)
	assert.Equal(t, "Initialising...", v.View())

	v.SetDimensions(80, 24)
	assert.Contains(t, v.View(), "Loading...")
}

func TestView_Keys(t *testing.T) {
	v := loaded(t, NewView(nil, nil, &mockHistoryService{}, nil, nil))

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, v.Loading())
	assert.IsType(t, messages.StatsLoaded{}, cmd())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
