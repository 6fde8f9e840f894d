package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
	"github.com/repotrawl/repotrawl/internal/logger"
)

const (
	// DefaultCap is the per-partition result cap. It equals the
	// platform's page-size ceiling, so one partition is one fetch.
	DefaultCap = 100

	// MaxCap is the largest usable cap. Caps above the page-size
	// ceiling would plan partitions no single fetch could drain.
	MaxCap = 100

	// searchBudgetPerMinute is the platform's documented search quota
	// for authenticated clients. Used only for the planning estimate.
	searchBudgetPerMinute = 30
)

// ErrCapOutOfRange indicates a per-partition cap outside 1..MaxCap.
var ErrCapOutOfRange = errors.New("per-partition cap must be between 1 and 100")

// Partitioner splits a filter's creation window into windows whose
// result counts fit under the cap, using the search client as a live
// count oracle. It never fetches result pages.
type Partitioner struct {
	client driven.SearchClient
	max    int
}

// NewPartitioner creates a partitioner. max 0 selects DefaultCap.
func NewPartitioner(client driven.SearchClient, max int) (*Partitioner, error) {
	if max == 0 {
		max = DefaultCap
	}
	if max < 1 || max > MaxCap {
		return nil, fmt.Errorf("%w: got %d", ErrCapOutOfRange, max)
	}
	return &Partitioner{client: client, max: max}, nil
}

// Cap returns the per-partition result cap.
func (p *Partitioner) Cap() int { return p.max }

// span is one pending window on the bisection worklist. counted marks
// spans whose count is already known, so no window is probed twice.
type span struct {
	start, end time.Time
	count      int
	counted    bool
}

// Partition measures the filter's creation window and bisects it until
// every leaf holds at most Cap results. Leaves come back in
// chronological order and tile the window exactly: each leaf's End is
// the next leaf's Start.
func (p *Partitioner) Partition(ctx context.Context, filter domain.Filter) ([]domain.Partition, error) {
	// 1. Validate the window before touching the network.
	start, end, err := filter.CreatedWindow()
	if err != nil {
		return nil, fmt.Errorf("partition filter: %w", err)
	}

	// 2. Measure the root. A root under the cap is the whole plan.
	rootCount, err := p.count(ctx, filter, start, end)
	if err != nil {
		return nil, err
	}
	if rootCount <= p.max {
		return []domain.Partition{{Count: rootCount, Start: start, End: end}}, nil
	}

	p.logEstimate(rootCount)

	// 3. Bisect on an explicit worklist. Pushing the right half before
	// the left means the left half pops first, so leaves emit
	// oldest-first without any sorting.
	var leaves []domain.Partition
	stack := []span{{start: start, end: end, count: rootCount, counted: true}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !s.counted {
			s.count, err = p.count(ctx, filter, s.start, s.end)
			if err != nil {
				return nil, err
			}
		}

		if s.count <= p.max {
			leaves = append(leaves, domain.Partition{Count: s.count, Start: s.start, End: s.end})
			continue
		}

		mid := s.start.Add(s.end.Sub(s.start) / 2).Truncate(time.Millisecond)
		if !mid.After(s.start) || !mid.Before(s.end) {
			// Already at wire resolution; completeness is unachievable.
			return nil, &domain.DenseWindowError{Start: s.start, End: s.end, Count: s.count, Cap: p.max}
		}
		stack = append(stack, span{start: mid, end: s.end}, span{start: s.start, end: mid})
	}

	logger.Info("Partitioned %d results into %d windows", rootCount, len(leaves))
	return leaves, nil
}

// count probes one window through the oracle.
func (p *Partitioner) count(ctx context.Context, filter domain.Filter, start, end time.Time) (int, error) {
	query := filter.WithCreatedWindow(start, end).Query()
	n, err := p.client.Count(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count window: %w", err)
	}
	logger.Debug("Count %q = %d", query, n)
	return n, nil
}

// logEstimate reports the expected probe cost before a bisection run.
// Assuming near-uniform density, splitting to depth d costs 2^(d+1)-1
// probes in total.
func (p *Partitioner) logEstimate(rootCount int) {
	depth := math.Ceil(math.Log2(float64(rootCount) / float64(p.max)))
	probes := math.Pow(2, depth+1) - 1
	logger.Info("Root count %d exceeds cap %d: expecting ~%.0f count probes, roughly %.1f min at %d probes/min",
		rootCount, p.max, probes, probes/searchBudgetPerMinute, searchBudgetPerMinute)
}
