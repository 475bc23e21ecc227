package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports are the services the server is built over. Query backs the ask
// tool and must be set. Each optional port adds its own tools and
// resources: Router adds route, Ingest adds search_index, the stats
// resource and (unless read-only) ingest_text and remove_document, and
// History adds the history resource.
type Ports struct {
	Query   driving.QueryService
	Router  driving.RouterService
	Ingest  driving.IngestService
	History driving.HistoryService
}

func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
