// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SearchClient: Remote repository search (count oracle + page fetcher)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Catalog: Harvest persistence. Without it, results are not recorded.
//   - Cloner: Local checkout of harvested repositories. Without it,
//     harvesting stops at metadata.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
