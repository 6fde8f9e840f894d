package services

import (
	"context"
	"fmt"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
	"github.com/repotrawl/repotrawl/internal/core/ports/driving"
)

// Ensure Searcher implements the interface.
var _ driving.RepoSearch = (*Searcher)(nil)

// Searcher provides exhaustive repository search over a search client.
type Searcher struct {
	client      driven.SearchClient
	partitioner *Partitioner
}

// NewSearcher creates a searcher. max is the per-partition cap;
// 0 selects DefaultCap.
func NewSearcher(client driven.SearchClient, max int) (*Searcher, error) {
	partitioner, err := NewPartitioner(client, max)
	if err != nil {
		return nil, err
	}
	return &Searcher{client: client, partitioner: partitioner}, nil
}

// Cap returns the per-partition result cap plans are built with.
func (s *Searcher) Cap() int { return s.partitioner.Cap() }

// Count measures the filter's total result count with a single probe.
// When both created bounds are set, the probe uses the same half-open
// window rendering as planning, so Count agrees with Plan's root.
func (s *Searcher) Count(ctx context.Context, filter domain.Filter) (int, error) {
	n, err := s.client.Count(ctx, queryFor(filter))
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Plan partitions the filter's creation window so that every partition's
// result count fits in a single page.
func (s *Searcher) Plan(ctx context.Context, filter domain.Filter) ([]domain.Partition, error) {
	return s.partitioner.Partition(ctx, filter)
}

// Open plans eagerly, then returns a lazy stream over the partitions.
// The stream performs one page fetch per Next; abandoning it after k
// batches costs exactly k fetches.
func (s *Searcher) Open(ctx context.Context, filter domain.Filter) (driving.BatchStream, error) {
	parts, err := s.partitioner.Partition(ctx, filter)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += p.Count
	}

	return &ResultStream{
		client: s.client,
		filter: filter,
		parts:  parts,
		total:  total,
	}, nil
}

// queryFor renders the filter, applying the half-open window rendering
// when the created range is fully bounded.
func queryFor(f domain.Filter) string {
	start, end, err := f.CreatedWindow()
	if err != nil {
		return f.Query()
	}
	return f.WithCreatedWindow(start, end).Query()
}

// Ensure ResultStream implements the interface.
var _ driving.BatchStream = (*ResultStream)(nil)

// ResultStream walks a partition plan lazily. Each Next performs at
// most one page fetch; zero-count partitions produce an empty batch
// without touching the network. Not safe for concurrent use.
type ResultStream struct {
	client  driven.SearchClient
	filter  domain.Filter
	parts   []domain.Partition
	total   int
	pos     int
	fetched int
	batch   domain.ResultBatch
	err     error
}

// Next advances to the next partition, fetching its results.
// It returns false once the stream is exhausted or an error occurred.
func (s *ResultStream) Next(ctx context.Context) bool {
	if s.err != nil || s.pos >= len(s.parts) {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.err = err
		return false
	}

	part := s.parts[s.pos]
	s.pos++

	var items []domain.Repository
	if part.Count > 0 {
		query := s.filter.WithCreatedWindow(part.Start, part.End).Query()
		items, s.err = s.client.FetchPage(ctx, query, part.Count)
		if s.err != nil {
			s.err = fmt.Errorf("fetch window [%s, %s): %w",
				part.Start.UTC().Format(domain.WireTimeLayout),
				part.End.UTC().Format(domain.WireTimeLayout), s.err)
			return false
		}
	}

	s.fetched += len(items)
	progress := 1.0
	if s.total > 0 {
		progress = float64(s.fetched) / float64(s.total)
	}
	s.batch = domain.ResultBatch{
		TotalCount:    s.total,
		CountInBatch:  len(items),
		CountProgress: s.fetched,
		Progress:      progress,
		Start:         part.Start,
		End:           part.End,
		Items:         items,
	}
	return true
}

// Batch returns the batch produced by the most recent successful Next.
func (s *ResultStream) Batch() domain.ResultBatch { return s.batch }

// Err returns the error that stopped the stream, if any. Batches
// delivered before the failure remain valid.
func (s *ResultStream) Err() error { return s.err }

// TotalCount returns the sum of all partition counts, i.e. the root
// count under a consistent oracle.
func (s *ResultStream) TotalCount() int { return s.total }

// Partitions returns the plan the stream walks, in chronological order.
// Callers must treat the slice as read-only.
func (s *ResultStream) Partitions() []domain.Partition { return s.parts }
