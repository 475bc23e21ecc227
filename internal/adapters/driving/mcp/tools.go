package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const defaultSearchLimit = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer"`
	Mode      string `json:"mode,omitempty" jsonschema:"AUTO (default), RAG or NLP"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default from settings)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session identifier recorded in history"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string                   `json:"answer"`
	Mode           string                   `json:"mode"`
	Sources        []domain.SourceReference `json:"sources"`
	Fallback       bool                     `json:"fallback"`
	Degraded       bool                     `json:"degraded"`
	FromCache      bool                     `json:"from_cache"`
	ResponseTimeMs int64                    `json:"response_time_ms"`
}

// RouteInput is the input schema for the route tool.
type RouteInput struct {
	Question string `json:"question" jsonschema:"the question to classify"`
}

// RouteOutput is the output schema for the route tool.
type RouteOutput struct {
	Mode            string   `json:"mode"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords"`
	MatchedPatterns []string `json:"matched_patterns"`
	Reason          string   `json:"reason"`
}

// SearchInput is the input schema for the search_index tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of hits to return (default 5)"`
}

// SearchOutput is the output schema for the search_index tool.
type SearchOutput struct {
	Hits  []SearchHitOutput `json:"hits"`
	Count int               `json:"count"`
}

// SearchHitOutput represents a single index hit.
type SearchHitOutput struct {
	ChunkID      string   `json:"chunk_id"`
	DocumentID   string   `json:"document_id,omitempty"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
	Content      string   `json:"content"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of the document; an existing document is replaced"`
	Text       string `json:"text" jsonschema:"the document text"`
	Title      string `json:"title,omitempty" jsonschema:"optional document title"`
}

// IngestTextOutput is the output schema for the ingest_text tool.
type IngestTextOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Skipped    bool   `json:"skipped"`
}

// RemoveInput is the input schema for the remove_document tool.
type RemoveInput struct {
	DocumentID string `json:"document_id" jsonschema:"identifier of the document to remove"`
}

// RemoveOutput is the output schema for the remove_document tool.
type RemoveOutput struct {
	Removed bool `json:"removed"`
}

// registerTools adds a tool for each present port. Read-only servers get
// no tools that write.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents or the language model",
	}, s.handleAsk)

	if s.ports.Router != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "route",
			Description: "Classify a question as RAG or NLP without answering it",
		}, s.handleRoute)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search_index",
			Description: "Search indexed chunks lexically without generating an answer",
		}, s.handleSearch)
	}

	if s.ports.Ingest != nil && !s.readOnly {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Add or replace a document in the knowledge base",
		}, s.handleIngestText)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "remove_document",
			Description: "Remove a document and its chunks from the knowledge base",
		}, s.handleRemove)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	mode, err := domain.ParseQueryMode(input.Mode)
	if err != nil {
		return nil, AskOutput{}, err
	}

	result, err := s.ports.Query.Query(ctx, domain.QueryRequest{
		Question:  input.Question,
		Mode:      mode,
		TopK:      input.TopK,
		SessionID: input.SessionID,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.SourceReference{}
	}
	return nil, AskOutput{
		Answer:         result.Answer,
		Mode:           result.Mode.String(),
		Sources:        sources,
		Fallback:       result.Fallback,
		Degraded:       result.Degraded,
		FromCache:      result.FromCache,
		ResponseTimeMs: result.ResponseTimeMs,
	}, nil
}

// handleRoute handles the route tool invocation.
func (s *Server) handleRoute(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RouteInput,
) (*mcp.CallToolResult, RouteOutput, error) {
	d := s.ports.Router.Classify(input.Question)
	return nil, RouteOutput{
		Mode:            d.Mode.String(),
		Confidence:      d.Confidence,
		MatchedKeywords: nonNil(d.MatchedKeywords),
		MatchedPatterns: nonNil(d.MatchedPatterns),
		Reason:          d.Reason,
	}, nil
}

// handleSearch handles the search_index tool invocation.
func (s *Server) handleSearch(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits := s.ports.Ingest.Search(input.Query, limit)
	output := SearchOutput{
		Hits:  make([]SearchHitOutput, len(hits)),
		Count: len(hits),
	}
	for i := range hits {
		parent, _ := hits[i].Metadata[domain.MetaParentDocID].(string)
		output.Hits[i] = SearchHitOutput{
			ChunkID:      hits[i].DocID,
			DocumentID:   parent,
			Score:        hits[i].Score,
			MatchedTerms: nonNil(hits[i].MatchedTerms),
			Content:      hits[i].Content,
		}
	}
	return nil, output, nil
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	var metadata map[string]any
	if input.Title != "" {
		metadata = map[string]any{domain.MetaTitle: input.Title}
	}

	result, err := s.ports.Ingest.Ingest(ctx, input.DocumentID, input.Text, metadata)
	if err != nil {
		return nil, IngestTextOutput{}, fmt.Errorf("ingesting %q: %w", input.DocumentID, err)
	}
	return nil, IngestTextOutput{
		DocumentID: result.DocumentID,
		ChunkCount: result.ChunkCount,
		Skipped:    result.Skipped,
	}, nil
}

// handleRemove handles the remove_document tool invocation.
func (s *Server) handleRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, RemoveOutput, error) {
	removed, err := s.ports.Ingest.Remove(ctx, input.DocumentID)
	if err != nil {
		return nil, RemoveOutput{}, fmt.Errorf("removing %q: %w", input.DocumentID, err)
	}
	return nil, RemoveOutput{Removed: removed}, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
