package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// cacheKeyPrefix namespaces query cache keys.
const cacheKeyPrefix = "query:"

// QueryConfig tunes the orchestrator.
type QueryConfig struct {
	// TopK is the default number of chunks retrieved in RAG mode.
	TopK int

	// GenerationTimeout bounds each generation call. Zero means no bound
	// beyond the caller's context.
	GenerationTimeout time.Duration

	// CacheTTL is how long answers stay cached. Zero uses the cache default.
	CacheTTL time.Duration
}

// QueryConfigFrom derives orchestrator settings from application settings.
func QueryConfigFrom(s *domain.AppSettings) QueryConfig {
	return QueryConfig{
		TopK:              s.Retrieval.TopK,
		GenerationTimeout: s.Generation.Timeout,
		CacheTTL:          s.Cache.TTL,
	}
}

// QueryService answers questions by routing, retrieving, generating, caching
// and recording history. Failures past input validation never surface as
// errors; they become fallback answers.
type QueryService struct {
	router  driving.RouterService
	index   driven.LexicalIndex
	backend driven.GenerationBackend // nil: every answer is the fallback
	cache   driven.QueryCache        // nil: no caching
	history driven.HistoryStore      // nil: no history
	config  QueryConfig
}

// NewQueryService creates a query orchestrator.
func NewQueryService(
	router driving.RouterService,
	index driven.LexicalIndex,
	backend driven.GenerationBackend,
	cache driven.QueryCache,
	history driven.HistoryStore,
	config QueryConfig,
) *QueryService {
	if config.TopK <= 0 {
		config.TopK = domain.DefaultTopK
	}
	return &QueryService{
		router:  router,
		index:   index,
		backend: backend,
		cache:   cache,
		history: history,
		config:  config,
	}
}

// queryRun carries per-query state so the recover handler can report
// whatever was resolved before a failure.
type queryRun struct {
	question  string
	sessionID string
	mode      domain.QueryMode
	start     time.Time
	recorded  bool
}

func (r *queryRun) elapsedMs() int64 {
	return time.Since(r.start).Milliseconds()
}

// Query answers a question.
func (s *QueryService) Query(ctx context.Context, req domain.QueryRequest) (result *domain.QueryResult, err error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &queryRun{
		question:  question,
		sessionID: req.SessionID,
		mode:      req.Mode,
		start:     time.Now(),
	}
	if run.sessionID == "" {
		run.sessionID = uuid.NewString()
	}
	if !run.mode.IsValid() {
		if run.mode != "" {
			logger.Warn("query: unknown mode %q, routing automatically", run.mode)
		}
		run.mode = domain.QueryModeAuto
	}

	defer func() {
		if r := recover(); r != nil {
			if !run.mode.IsResolved() {
				run.mode = domain.QueryModeRAG
			}
			logger.Error("query: unexpected failure for %q (mode %s, %dms): %v",
				run.question, run.mode, run.elapsedMs(), r)
			result = &domain.QueryResult{
				Answer:         domain.GenericErrorAnswer,
				Mode:           run.mode,
				Sources:        []domain.SourceReference{},
				ResponseTimeMs: run.elapsedMs(),
				Fallback:       true,
			}
			err = nil
			if !run.recorded {
				s.record(ctx, run, result)
			}
		}
	}()

	return s.execute(ctx, run, req.TopK), nil
}

func (s *QueryService) execute(ctx context.Context, run *queryRun, topK int) *domain.QueryResult {
	logger.Section("Query")

	// 1. Resolve mode
	var routing *domain.RoutingDecision
	if run.mode == domain.QueryModeAuto {
		d := s.router.Classify(run.question)
		routing = &d
		run.mode = d.Mode
	}
	logger.Debug("query: mode %s", run.mode)

	// 2. Cache lookup
	key := CacheKey(run.question, run.mode)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			out := cached.Clone()
			out.FromCache = true
			out.ResponseTimeMs = run.elapsedMs()
			logger.Debug("query: cache hit %s", key)
			return out
		}
	}

	result := &domain.QueryResult{
		Mode:    run.mode,
		Sources: []domain.SourceReference{},
		Routing: routing,
	}

	// 3. Retrieval
	var contextText string
	if run.mode == domain.QueryModeRAG {
		if topK <= 0 {
			topK = s.config.TopK
		}
		done := logger.Timed("query: retrieval")
		hits := s.index.Search(run.question, topK)
		done()
		logger.Debug("query: retrieved %d chunks (topK %d)", len(hits), topK)
		if len(hits) == 0 {
			result.Degraded = true
		} else {
			result.Sources = sourcesFromHits(hits)
			// 4. Context assembly
			contextText = BuildContext(hits)
		}
	}

	// 5. Generation
	done := logger.Timed("query: generation")
	answer, genErr := s.generate(ctx, run.question, contextText)
	done()
	if genErr != nil {
		logger.Warn("query: generation failed after %dms: %v", run.elapsedMs(), genErr)
		result.Answer = domain.FallbackAnswer
		result.Fallback = true
		result.Sources = []domain.SourceReference{}
	} else {
		result.Answer = answer
	}
	result.ResponseTimeMs = run.elapsedMs()

	// 6. History and cache
	s.record(ctx, run, result)
	if s.cache != nil {
		s.cache.Put(key, result.Clone(), s.config.CacheTTL)
	}

	logger.Info("query: answered in %dms (mode %s, sources %d, fallback %t)",
		result.ResponseTimeMs, result.Mode, len(result.Sources), result.Fallback)
	return result
}

// generate calls the backend, bounded by the generation timeout.
func (s *QueryService) generate(ctx context.Context, question, contextText string) (string, error) {
	if s.backend == nil {
		return "", domain.ErrGenerationUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	genCtx := ctx
	if s.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.config.GenerationTimeout)
		defer cancel()
	}

	var (
		answer string
		err    error
	)
	if contextText == "" {
		answer, err = s.backend.Generate(genCtx, question)
	} else {
		answer, err = s.backend.GenerateWithContext(genCtx, question, contextText)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: empty answer", domain.ErrBackendFailure)
	}
	return answer, nil
}

// record appends a history record. Failures are logged, never returned.
func (s *QueryService) record(ctx context.Context, run *queryRun, result *domain.QueryResult) {
	run.recorded = true
	if s.history == nil {
		return
	}
	rec := &domain.HistoryRecord{
		SessionID:      run.sessionID,
		Question:       run.question,
		Answer:         result.Answer,
		Mode:           result.Mode,
		ResponseTimeMs: result.ResponseTimeMs,
		SourceCount:    len(result.Sources),
		Fallback:       result.Fallback,
		CreatedAt:      time.Now(),
	}
	// History is written even when the caller has gone away.
	if _, err := s.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("query: failed to record history: %v", err)
	}
}

// CacheKey derives the cache key for a question and resolved mode.
// Questions are compared case-insensitively with whitespace collapsed.
func CacheKey(question string, mode domain.QueryMode) string {
	normalised := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalised + ":" + mode.String()))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// BuildContext formats retrieved chunks as numbered, scored sources.
func BuildContext(hits []domain.IndexHit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[Source %d] (score=%.2f)\n%s", i+1, h.Score, h.Content)
	}
	return strings.Join(parts, "\n\n")
}

func sourcesFromHits(hits []domain.IndexHit) []domain.SourceReference {
	sources := make([]domain.SourceReference, len(hits))
	for i, h := range hits {
		ref := domain.SourceReference{
			ChunkID: h.DocID,
			Content: h.Content,
			Score:   h.Score,
		}
		if parent, ok := h.Metadata[domain.MetaParentDocID].(string); ok {
			ref.DocumentID = parent
		} else {
			ref.DocumentID = h.DocID
		}
		if title, ok := h.Metadata[domain.MetaTitle].(string); ok {
			ref.Title = title
		}
		ref.ChunkIndex = intFromAny(h.Metadata[domain.MetaChunkIndex])
		sources[i] = ref
	}
	return sources
}

// intFromAny converts numeric metadata that may have passed through JSON.
func intFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
