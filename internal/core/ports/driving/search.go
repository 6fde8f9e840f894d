package driving

import (
	"context"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// BatchStream is a pull iterator over partitioned search results.
// Partition planning has already happened by the time a stream exists;
// each Next performs at most one page fetch. Streams are not safe for
// concurrent use and cannot be restarted.
type BatchStream interface {
	// Next advances to the next partition, fetching its results.
	// It returns false once the stream is exhausted or an error occurred.
	Next(ctx context.Context) bool

	// Batch returns the batch produced by the most recent successful Next.
	Batch() domain.ResultBatch

	// Err returns the error that stopped the stream, if any. Batches
	// delivered before the failure remain valid.
	Err() error

	// TotalCount returns the root count measured at planning time.
	TotalCount() int

	// Partitions returns the plan the stream walks, in chronological order.
	Partitions() []domain.Partition
}

// RepoSearch provides exhaustive repository search to external actors.
type RepoSearch interface {
	// Cap returns the per-partition result cap plans are built with.
	Cap() int

	// Count measures the filter's total result count with a single probe.
	Count(ctx context.Context, filter domain.Filter) (int, error)

	// Plan partitions the filter's creation window so that every
	// partition's result count fits in a single page.
	Plan(ctx context.Context, filter domain.Filter) ([]domain.Partition, error)

	// Open plans eagerly, then returns a lazy stream over the partitions.
	// Abandoning the stream after k batches costs exactly k page fetches.
	Open(ctx context.Context, filter domain.Filter) (BatchStream, error)
}
