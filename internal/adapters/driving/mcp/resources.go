package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for sercha-rag resources.
	uriScheme = "sercha-rag://"

	recentHistorySize = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.History != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "history",
			Name:        "history",
			Description: "The most recent questions and answers",
			MIMEType:    "application/json",
		}, s.handleHistoryResource)
	}

	if s.ports.History != nil || s.ports.Ingest != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "stats",
			Name:        "stats",
			Description: "Query history and index statistics",
			MIMEType:    "application/json",
		}, s.handleStatsResource)
	}

	if s.ports.Ingest != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "documents/{documentId}",
			Name:        "document-content",
			Description: "Normalised content of a specific document",
			MIMEType:    "text/plain",
		}, s.handleDocumentContentResource)
	}
}

// handleHistoryResource returns the latest history page.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	page, err := s.ports.History.List(ctx, domain.HistoryFilter{}, domain.PageRequest{Size: recentHistorySize})
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return jsonResource(req.Params.URI, page)
}

// handleStatsResource combines history and index statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type stats struct {
		History *domain.HistoryStats `json:"history,omitempty"`
		Index   *domain.IndexStats   `json:"index,omitempty"`
	}

	var out stats
	if s.ports.History != nil {
		h, err := s.ports.History.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting history stats: %w", err)
		}
		out.History = h
	}
	if s.ports.Ingest != nil {
		idx := s.ports.Ingest.Stats()
		out.Index = &idx
	}
	return jsonResource(req.Params.URI, out)
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: sercha-rag://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Ingest.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like sercha-rag://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
