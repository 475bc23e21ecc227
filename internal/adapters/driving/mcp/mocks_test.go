package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
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
	return &domain.QueryResult{Answer: "ok", Mode: domain.QueryModeNLP}, nil
}

// mockRouterService is a mock implementation of driving.RouterService.
type mockRouterService struct {
	decision domain.RoutingDecision
}

func (m *mockRouterService) Classify(_ string) domain.RoutingDecision {
	return m.decision
}

func (m *mockRouterService) DetermineQueryMode(_ string) domain.QueryMode {
	return m.decision.Mode
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	docs      map[string]*domain.Document
	hits      []domain.IndexHit
	removed   bool
	err       error
	lastLimit int
	lastMeta  map[string]any
}

func (m *mockIngestService) Ingest(
	_ context.Context, docID, _ string, metadata map[string]any,
) (*domain.IngestResult, error) {
	m.lastMeta = metadata
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{DocumentID: docID, ChunkCount: 3}, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string) (*domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockIngestService) IngestDirectory(_ context.Context, _ string) ([]domain.IngestResult, error) {
	return nil, m.err
}

func (m *mockIngestService) Remove(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockIngestService) RemoveFile(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockIngestService) Rebuild(_ context.Context) (int, error) { return 0, m.err }

func (m *mockIngestService) List(_ context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, *d)
	}
	return out, m.err
}

func (m *mockIngestService) Get(_ context.Context, docID string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if d, ok := m.docs[docID]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockIngestService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockIngestService) Search(_ string, topK int) []domain.IndexHit {
	m.lastLimit = topK
	return m.hits
}

func (m *mockIngestService) Stats() domain.IndexStats {
	return domain.IndexStats{DocumentCount: 2, VocabularySize: 10, TotalTerms: 30, AverageTermsPerDocument: 15}
}

func (m *mockIngestService) CheckQuality(_ context.Context) (*domain.QualityReport, error) {
	return &domain.QualityReport{}, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	records  []domain.HistoryRecord
	err      error
	lastPage domain.PageRequest
}

func (m *mockHistoryService) List(
	_ context.Context, _ domain.HistoryFilter, page domain.PageRequest,
) (*domain.HistoryPage, error) {
	m.lastPage = page
	if m.err != nil {
		return nil, m.err
	}
	return &domain.HistoryPage{Records: m.records, Total: len(m.records), Size: page.Size}, nil
}

func (m *mockHistoryService) Get(_ context.Context, _ int64) (*domain.HistoryRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *mockHistoryService) Delete(_ context.Context, _ int64) error { return m.err }

func (m *mockHistoryService) Clear(_ context.Context) error { return m.err }

func (m *mockHistoryService) Stats(_ context.Context) (*domain.HistoryStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.HistoryStats{TotalQueries: 2, RAGQueries: 1, NLPQueries: 1, RAGPercentage: 50, NLPPercentage: 50}, nil
}

func (m *mockHistoryService) Prune(_ context.Context) (int, error) { return 0, m.err }
