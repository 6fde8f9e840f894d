// Package sqlite provides the SQLite-backed implementation of the
// Catalog driven port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. Queries are
// built with goqu against column constants, so table and column names
// live in one place.
//
// # Schema
//
// Two tables: harvest_runs records one row per harvester execution
// (query, cap, planned total, outcome tallies), and repositories holds
// the metadata of every repository a run retrieved, keyed by
// (run_id, id). The schema is managed through versioned .up.sql
// migrations embedded in the migrations/ directory and applied on open.
//
// # Data Location
//
// By default, the database is stored at ~/.repotrawl/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode, which matters because clone workers
// mark repositories cloned while the next batch is being saved.
package sqlite
