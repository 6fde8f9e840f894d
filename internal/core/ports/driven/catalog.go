package driven

import (
	"context"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// Catalog persists harvest runs and the repositories they fetched.
type Catalog interface {
	// BeginRun records a new run. The run's ID must be unique.
	BeginRun(ctx context.Context, run domain.HarvestRun) error

	// CompleteRun marks a run finished, recording how many repositories
	// were fetched and how many clone attempts failed.
	CompleteRun(ctx context.Context, runID string, fetched, cloneErrors int) error

	// SaveRepositories upserts a batch of repositories under a run.
	SaveRepositories(ctx context.Context, runID string, repos []domain.Repository) error

	// MarkCloned records the local checkout path for a repository.
	MarkCloned(ctx context.Context, runID string, repoID int64, path string) error

	// GetRun retrieves a run by ID. Returns domain.ErrNotFound if the
	// run does not exist.
	GetRun(ctx context.Context, runID string) (*domain.HarvestRun, error)

	// ListRuns returns all recorded runs, newest first.
	ListRuns(ctx context.Context) ([]domain.HarvestRun, error)

	// ListRepositories returns a run's repositories, oldest creation
	// time first.
	ListRepositories(ctx context.Context, runID string) ([]domain.Repository, error)

	// Close releases resources.
	Close() error
}
