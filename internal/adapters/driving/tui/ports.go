// Package tui provides an interactive terminal user interface for sercha-rag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
// Only Query is required; views backed by a missing port are hidden.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Router previews how a question will be classified.
	Router driving.RouterService

	// History browses and manages past queries.
	History driving.HistoryService

	// Ingest provides index statistics.
	Ingest driving.IngestService

	// Settings supplies defaults such as TopK.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
