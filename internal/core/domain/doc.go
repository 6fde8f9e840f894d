// Package domain defines the core business entities for repotrawl.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Filter: A repository search filter and its query serialization
//   - Partition: A creation-date window holding at most one page of results
//   - Repository: The metadata record a search returns
//   - ResultBatch: One partition's worth of results with progress counters
//   - HarvestRun / HarvestSummary: Identity and outcome of a harvest
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
