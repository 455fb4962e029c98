package mcp

import (
	"github.com/oakum-labs/docq-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions over the collection.
	Query driving.QueryService

	// Ingest adds documents to the collection.
	Ingest driving.IngestionService

	// Health reports backend status.
	Health driving.HealthService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Ingest and Health are optional; their tools are only registered
	// when present
	return nil
}
