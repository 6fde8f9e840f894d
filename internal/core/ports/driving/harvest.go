package driving

import (
	"context"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// HarvestObserver receives progress events during a harvest run.
// OnClone may fire from worker goroutines; implementations must be safe
// for concurrent use. A nil observer is valid and disables reporting.
type HarvestObserver interface {
	// OnPlan fires once after partition planning, before any fetch.
	OnPlan(totalCount int, partitions []domain.Partition)

	// OnBatch fires after each partition's results are fetched and saved.
	OnBatch(batch domain.ResultBatch)

	// OnClone fires after each clone attempt. path is empty when err is
	// non-nil.
	OnClone(repo domain.Repository, path string, err error)
}

// Harvester runs a complete retrieval: plan, stream, persist and
// optionally clone every matching repository.
type Harvester interface {
	// Run harvests everything the filter matches. Page fetches are
	// sequential; only clone work is parallel. Per-repository clone
	// failures are recorded in the summary, not returned as errors.
	Run(ctx context.Context, filter domain.Filter, obs HarvestObserver) (*domain.HarvestSummary, error)
}
