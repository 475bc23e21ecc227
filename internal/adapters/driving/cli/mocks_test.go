package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type mockQueryService struct {
	result  *domain.QueryResult
	err     error
	lastReq domain.QueryRequest
}

func (m *mockQueryService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.QueryResult{
		Answer: "Rollbacks use the previous release tag.",
		Mode:   domain.QueryModeRAG,
		Sources: []domain.SourceReference{{
			ChunkID:    "guide#0",
			DocumentID: "guide",
			ChunkIndex: 0,
			Title:      "Deployment Guide",
			Content:    "To roll back, redeploy the previous release tag.",
			Score:      0.42,
		}},
		ResponseTimeMs: 12,
		Routing:        &domain.RoutingDecision{Mode: domain.QueryModeRAG, Confidence: 0.8},
	}, nil
}

type mockRouterService struct{}

func (m *mockRouterService) Classify(_ string) domain.RoutingDecision {
	return domain.RoutingDecision{
		Mode:            domain.QueryModeRAG,
		Confidence:      0.75,
		MatchedKeywords: []string{"document"},
		MatchedPatterns: []string{"what does"},
		Reason:          "knowledge-base keywords matched",
	}
}

func (m *mockRouterService) DetermineQueryMode(q string) domain.QueryMode {
	return m.Classify(q).Mode
}

type mockIngestService struct {
	docs       []domain.Document
	chunks     []domain.Chunk
	hits       []domain.IndexHit
	report     *domain.QualityReport
	removed    bool
	err        error
	ingestedID string
	ingestedMD map[string]any
	ingestText string
	files      []string
	rebuilt    int
}

func (m *mockIngestService) Ingest(
	_ context.Context, docID, text string, metadata map[string]any,
) (*domain.IngestResult, error) {
	m.ingestedID, m.ingestText, m.ingestedMD = docID, text, metadata
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{DocumentID: docID, ChunkCount: 2}, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, path string) (*domain.IngestResult, error) {
	m.files = append(m.files, path)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{DocumentID: "file-" + path, ChunkCount: 1}, nil
}

func (m *mockIngestService) IngestDirectory(_ context.Context, _ string) ([]domain.IngestResult, error) {
	return []domain.IngestResult{
		{DocumentID: "a", ChunkCount: 1},
		{DocumentID: "b", Skipped: true},
		{DocumentID: "c", ChunkCount: 3},
	}, m.err
}

func (m *mockIngestService) Remove(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockIngestService) RemoveFile(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockIngestService) Rebuild(_ context.Context) (int, error) {
	return m.rebuilt, m.err
}

func (m *mockIngestService) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockIngestService) Get(_ context.Context, docID string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == docID {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockIngestService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockIngestService) Search(_ string, _ int) []domain.IndexHit {
	return m.hits
}

func (m *mockIngestService) Stats() domain.IndexStats {
	return domain.IndexStats{DocumentCount: 4, TotalTerms: 120, AverageTermsPerDocument: 30, VocabularySize: 55}
}

func (m *mockIngestService) CheckQuality(_ context.Context) (*domain.QualityReport, error) {
	if m.report != nil {
		return m.report, m.err
	}
	return &domain.QualityReport{Documents: 2, Chunks: 4, IndexedEntries: 4}, m.err
}

type mockHistoryService struct {
	records []domain.HistoryRecord
	err     error
	cleared bool
	deleted int64
	pruned  int
	page    domain.PageRequest
	filter  domain.HistoryFilter
}

func (m *mockHistoryService) List(
	_ context.Context, filter domain.HistoryFilter, page domain.PageRequest,
) (*domain.HistoryPage, error) {
	m.filter, m.page = filter, page
	if m.err != nil {
		return nil, m.err
	}
	page = page.Normalise()
	return &domain.HistoryPage{Records: m.records, Total: len(m.records), Page: page.Page, Size: page.Size}, nil
}

func (m *mockHistoryService) Get(_ context.Context, id int64) (*domain.HistoryRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockHistoryService) Delete(_ context.Context, id int64) error {
	m.deleted = id
	return m.err
}

func (m *mockHistoryService) Clear(_ context.Context) error {
	m.cleared = true
	return m.err
}

func (m *mockHistoryService) Stats(_ context.Context) (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{TotalQueries: 4, RAGQueries: 3, NLPQueries: 1, FallbackQueries: 1, AverageResponseMs: 250}
	stats.ComputePercentages()
	return stats, m.err
}

func (m *mockHistoryService) Prune(_ context.Context) (int, error) {
	return m.pruned, m.err
}

type mockSettingsService struct {
	settings      domain.AppSettings
	saved         *domain.AppSettings
	provider      domain.AIProvider
	model         string
	apiKey        string
	baseURL       string
	validateErr   error
	generationErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.saved = settings
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetGenerationProvider(provider domain.AIProvider, model, apiKey, baseURL string) error {
	m.provider, m.model, m.apiKey, m.baseURL = provider, model, apiKey, baseURL
	m.settings.Generation.Provider = provider
	m.settings.Generation.Model = model
	m.settings.Generation.BaseURL = baseURL
	if apiKey != "" {
		m.settings.Generation.APIKey = apiKey
	}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateGenerationConfig() error { return m.generationErr }

type testServices struct {
	query    *mockQueryService
	ingest   *mockIngestService
	history  *mockHistoryService
	settings *mockSettingsService
}

// setupTestServices installs mocks and returns a cleanup that clears them
// and restores flag defaults, since commands are package-level.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		query:    &mockQueryService{},
		ingest:   &mockIngestService{},
		history:  &mockHistoryService{},
		settings: newMockSettingsService(),
	}
	SetServices(&Services{
		Query:    ts.query,
		Router:   &mockRouterService{},
		Ingest:   ts.ingest,
		History:  ts.history,
		Settings: ts.settings,
	})
	return ts, func() {
		SetServices(nil)
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

func resetFlags() {
	askMode, askTopK, askSession, askJSON = "AUTO", 0, "", false
	routeJSON = false
	ingestTitle = ""
	documentsJSON, documentsChunks = false, false
	historyMode, historySession, historyPage, historySize = "", "", 1, domain.DefaultPageSize
	historyJSON, historyYes = false, false
	indexCheck, indexJSON, indexTopK = false, false, 5
	watchNoSync = false
	tasksRecent, tasksJSON = 3, false
	mcpPort, mcpHost, mcpReadOnly = 0, "localhost", false
	tuiMode = ""
}

// execute runs the root command with args and returns combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

var testTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
