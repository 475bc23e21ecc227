package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const defaultVersion = "dev"

const instructions = `sercha-rag answers questions over a local document collection.
Use "ask" for answers; it routes between retrieval (RAG) and direct answers (NLP).
Use "route" to see how a question would be classified and "search_index" for raw
lexical matches. Answers flagged as fallback mean the generation backend is down.`

// Server exposes the query engine to MCP clients.
type Server struct {
	ports    *Ports
	server   *mcp.Server
	version  string
	readOnly bool
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported to clients and on /healthz.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithReadOnly leaves out the tools that change the knowledge base.
func WithReadOnly() Option {
	return func(s *Server) { s.readOnly = true }
}

// NewServer creates a server over ports. Only Query is required.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: defaultVersion}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "sercha-rag", Version: s.version},
		&mcp.ServerOptions{Instructions: instructions},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the streamable HTTP transport, plus GET /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil))
	return mux
}

// Health is the /healthz response body.
type Health struct {
	Status   string             `json:"status"`
	Service  string             `json:"service"`
	Version  string             `json:"version"`
	ReadOnly bool               `json:"read_only"`
	Time     time.Time          `json:"time"`
	Index    *domain.IndexStats `json:"index,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := Health{
		Status:   "UP",
		Service:  "sercha-rag",
		Version:  s.version,
		ReadOnly: s.readOnly,
		Time:     time.Now().UTC(),
	}
	if s.ports.Ingest != nil {
		stats := s.ports.Ingest.Stats()
		h.Index = &stats
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h)
}

// RunHTTP serves HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
