package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
	"github.com/repotrawl/repotrawl/internal/core/ports/driving"
	"github.com/repotrawl/repotrawl/internal/logger"
)

// DefaultCloneWorkers bounds concurrent clone processes when the caller
// does not choose.
const DefaultCloneWorkers = 4

// Ensure Harvester implements the interface.
var _ driving.Harvester = (*Harvester)(nil)

// Harvester coordinates a complete retrieval: plan, stream, persist and
// optionally clone every matching repository.
type Harvester struct {
	search  driving.RepoSearch
	catalog driven.Catalog
	cloner  driven.Cloner
	workers int
}

// NewHarvester creates a harvester. catalog and cloner are optional:
// a nil catalog skips persistence, a nil cloner skips checkouts.
// workers bounds concurrent clones; 0 selects DefaultCloneWorkers.
func NewHarvester(search driving.RepoSearch, catalog driven.Catalog, cloner driven.Cloner, workers int) *Harvester {
	if workers <= 0 {
		workers = DefaultCloneWorkers
	}
	return &Harvester{
		search:  search,
		catalog: catalog,
		cloner:  cloner,
		workers: workers,
	}
}

// Run harvests everything the filter matches. Page fetches stay strictly
// sequential; only clone work runs on the bounded pool. Per-repository
// clone failures are counted in the summary, never returned as errors.
// On failure the summary still reflects the work completed before it.
//
//nolint:gocognit,gocyclo // Orchestration function with necessary sequential steps
func (h *Harvester) Run(ctx context.Context, filter domain.Filter, obs driving.HarvestObserver) (*domain.HarvestSummary, error) {
	started := time.Now()

	// 1. Plan eagerly, stream lazily.
	stream, err := h.search.Open(ctx, filter)
	if err != nil {
		return nil, err
	}
	if obs != nil {
		obs.OnPlan(stream.TotalCount(), stream.Partitions())
	}

	// 2. Record the run.
	run := domain.HarvestRun{
		ID:         uuid.NewString(),
		Query:      filter.Query(),
		Cap:        h.search.Cap(),
		TotalCount: stream.TotalCount(),
		StartedAt:  started,
	}
	if h.catalog != nil {
		if err := h.catalog.BeginRun(ctx, run); err != nil {
			return nil, fmt.Errorf("begin run: %w", err)
		}
	}
	logger.Info("Harvest %s: %d repositories across %d windows", run.ID, run.TotalCount, len(stream.Partitions()))

	// 3. Clone pool. Workers never return errors, so the group exists
	// only for bounded parallelism and Wait.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(h.workers)

	var (
		mu        sync.Mutex
		cloned    int
		cloneErrs int
	)
	submitClone := func(repo domain.Repository) {
		group.Go(func() error {
			path, err := h.cloner.Clone(groupCtx, repo)
			if err != nil {
				logger.Error("Clone %s: %v", repo.FullName, err)
				mu.Lock()
				cloneErrs++
				mu.Unlock()
				if obs != nil {
					obs.OnClone(repo, "", err)
				}
				return nil
			}
			if h.catalog != nil {
				if err := h.catalog.MarkCloned(groupCtx, run.ID, repo.ID, path); err != nil {
					logger.Error("Mark clone of %s: %v", repo.FullName, err)
				}
			}
			mu.Lock()
			cloned++
			mu.Unlock()
			if obs != nil {
				obs.OnClone(repo, path, nil)
			}
			return nil
		})
	}

	// 4. Pull batches sequentially.
	summary := &domain.HarvestSummary{RunID: run.ID, TotalCount: run.TotalCount}
	var runErr error
	for stream.Next(ctx) {
		batch := stream.Batch()
		summary.Batches++
		summary.Fetched += batch.CountInBatch

		if h.catalog != nil && len(batch.Items) > 0 {
			if err := h.catalog.SaveRepositories(ctx, run.ID, batch.Items); err != nil {
				runErr = fmt.Errorf("save batch: %w", err)
				break
			}
		}
		if obs != nil {
			obs.OnBatch(batch)
		}
		if h.cloner != nil {
			for _, repo := range batch.Items {
				submitClone(repo)
			}
		}
	}
	if runErr == nil {
		runErr = stream.Err()
	}

	// 5. Drain in-flight clones before reporting anything.
	_ = group.Wait()

	summary.Cloned = cloned
	summary.CloneErrors = cloneErrs
	summary.Duration = time.Since(started)

	// 6. Close out the run record even on failure.
	if h.catalog != nil {
		if err := h.catalog.CompleteRun(ctx, run.ID, summary.Fetched, summary.CloneErrors); err != nil && runErr == nil {
			runErr = fmt.Errorf("complete run: %w", err)
		}
	}

	if runErr != nil {
		return summary, runErr
	}
	logger.Info("Harvest %s complete: %d fetched, %d cloned, %d clone errors in %s",
		run.ID, summary.Fetched, summary.Cloned, summary.CloneErrors, summary.Duration.Round(time.Millisecond))
	return summary, nil
}
