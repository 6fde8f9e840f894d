package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // SQL dialect
	_ "modernc.org/sqlite"                             // SQLite driver

	"github.com/repotrawl/repotrawl/internal/adapters/driven/catalog/sqlite/migrations"
	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
)

const (
	dialect = "sqlite3"

	tableRuns  = "harvest_runs"
	tableRepos = "repositories"

	colID          = "id"
	colQuery       = "query"
	colCap         = "cap"
	colTotalCount  = "total_count"
	colStartedAt   = "started_at"
	colCompletedAt = "completed_at"
	colFetched     = "fetched"
	colCloneErrors = "clone_errors"

	colRunID         = "run_id"
	colOwner         = "owner"
	colName          = "name"
	colFullName      = "full_name"
	colDescription   = "description"
	colLanguage      = "language"
	colDefaultBranch = "default_branch"
	colCloneURL      = "clone_url"
	colHTMLURL       = "html_url"
	colStars         = "stars"
	colForks         = "forks"
	colFork          = "fork"
	colArchived      = "archived"
	colCreatedAt     = "created_at"
	colClonedPath    = "cloned_path"
)

// Ensure Store implements the interface.
var _ driven.Catalog = (*Store)(nil)

// Store is a SQLite-backed catalog of harvest runs and the repositories
// they retrieved.
type Store struct {
	db      *sql.DB
	path    string
	builder goqu.DialectWrapper
}

// NewStore opens (creating if necessary) the catalog database at path.
// If path is empty, defaults to ~/.repotrawl/catalog.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".repotrawl", "catalog.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:      db,
		path:    path,
		builder: goqu.Dialect(dialect),
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Sort and run migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// BeginRun records a new harvest run.
func (s *Store) BeginRun(ctx context.Context, run domain.HarvestRun) error {
	query, args, err := s.builder.Insert(tableRuns).
		Rows(goqu.Record{
			colID:         run.ID,
			colQuery:      run.Query,
			colCap:        run.Cap,
			colTotalCount: run.TotalCount,
			colStartedAt:  run.StartedAt.UTC(),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("building run insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// CompleteRun closes out a run with its final tallies.
func (s *Store) CompleteRun(ctx context.Context, runID string, fetched, cloneErrors int) error {
	query, args, err := s.builder.Update(tableRuns).
		Set(goqu.Record{
			colCompletedAt: time.Now().UTC(),
			colFetched:     fetched,
			colCloneErrors: cloneErrors,
		}).
		Where(goqu.C(colID).Eq(runID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("building run update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveRepositories stores one batch of results for a run. Saving the
// same repository twice within a run is a no-op.
func (s *Store) SaveRepositories(ctx context.Context, runID string, repos []domain.Repository) error {
	if len(repos) == 0 {
		return nil
	}

	rows := make([]goqu.Record, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, goqu.Record{
			colRunID:         runID,
			colID:            r.ID,
			colOwner:         r.Owner,
			colName:          r.Name,
			colFullName:      r.FullName,
			colDescription:   r.Description,
			colLanguage:      r.Language,
			colDefaultBranch: r.DefaultBranch,
			colCloneURL:      r.CloneURL,
			colHTMLURL:       r.HTMLURL,
			colStars:         r.Stars,
			colForks:         r.Forks,
			colFork:          r.Fork,
			colArchived:      r.Archived,
			colCreatedAt:     r.CreatedAt.UTC(),
		})
	}

	query, args, err := s.builder.Insert(tableRepos).
		Rows(rows).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("building repository insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving repositories: %w", err)
	}
	return nil
}

// MarkCloned records the working-tree path of a cloned repository.
func (s *Store) MarkCloned(ctx context.Context, runID string, repoID int64, path string) error {
	query, args, err := s.builder.Update(tableRepos).
		Set(goqu.Record{colClonedPath: path}).
		Where(goqu.C(colRunID).Eq(runID), goqu.C(colID).Eq(repoID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("building clone update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("marking clone: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*domain.HarvestRun, error) {
	query, args, err := s.builder.From(tableRuns).
		Select(colID, colQuery, colCap, colTotalCount, colStartedAt, colCompletedAt, colFetched, colCloneErrors).
		Where(goqu.C(colID).Eq(runID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building run select: %w", err)
	}

	var run domain.HarvestRun
	var completedAt sql.NullTime
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&run.ID, &run.Query, &run.Cap, &run.TotalCount,
		&run.StartedAt, &completedAt, &run.Fetched, &run.CloneErrors); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// ListRuns returns all recorded runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]domain.HarvestRun, error) {
	query, args, err := s.builder.From(tableRuns).
		Select(colID, colQuery, colCap, colTotalCount, colStartedAt, colCompletedAt, colFetched, colCloneErrors).
		Order(goqu.I(colStartedAt).Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building runs select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.HarvestRun
	for rows.Next() {
		var run domain.HarvestRun
		var completedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.Query, &run.Cap, &run.TotalCount,
			&run.StartedAt, &completedAt, &run.Fetched, &run.CloneErrors); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// ListRepositories returns every repository stored for a run, oldest
// creation time first.
func (s *Store) ListRepositories(ctx context.Context, runID string) ([]domain.Repository, error) {
	query, args, err := s.builder.From(tableRepos).
		Select(colID, colOwner, colName, colFullName, colDescription, colLanguage,
			colDefaultBranch, colCloneURL, colHTMLURL, colStars, colForks,
			colFork, colArchived, colCreatedAt).
		Where(goqu.C(colRunID).Eq(runID)).
		Order(goqu.I(colCreatedAt).Asc(), goqu.I(colID).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building repository select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	defer rows.Close()

	var repos []domain.Repository
	for rows.Next() {
		var r domain.Repository
		if err := rows.Scan(&r.ID, &r.Owner, &r.Name, &r.FullName, &r.Description,
			&r.Language, &r.DefaultBranch, &r.CloneURL, &r.HTMLURL,
			&r.Stars, &r.Forks, &r.Fork, &r.Archived, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		repos = append(repos, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repositories: %w", err)
	}

	return repos, nil
}
