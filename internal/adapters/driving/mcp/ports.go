package mcp

import (
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
	"github.com/repotrawl/repotrawl/internal/core/ports/driving"
)

// Ports aggregates the interfaces the MCP server is driven by.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides counting, planning and exhaustive search.
	Search driving.RepoSearch

	// Catalog exposes past harvest runs as resources. Optional; without
	// it the run resources report empty.
	Catalog driven.Catalog
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearch
	}
	// Catalog is optional.
	return nil
}
