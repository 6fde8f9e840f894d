package mcp

import (
	"context"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driving"
)

func intPtr(v int) *int { return &v }

// fakeStream is a canned driving.BatchStream.
type fakeStream struct {
	batches []domain.ResultBatch
	parts   []domain.Partition
	total   int
	err     error

	// pulls counts Next calls that delivered a batch.
	pulls int
}

func (s *fakeStream) Next(_ context.Context) bool {
	if s.err != nil || s.pulls >= len(s.batches) {
		return false
	}
	s.pulls++
	return true
}

func (s *fakeStream) Batch() domain.ResultBatch { return s.batches[s.pulls-1] }

func (s *fakeStream) Err() error { return s.err }

func (s *fakeStream) TotalCount() int { return s.total }

func (s *fakeStream) Partitions() []domain.Partition { return s.parts }

// fakeRepoSearch is a canned implementation of driving.RepoSearch.
type fakeRepoSearch struct {
	max      int
	count    int
	countErr error
	parts    []domain.Partition
	planErr  error
	stream   *fakeStream
	openErr  error
}

func (f *fakeRepoSearch) Cap() int {
	if f.max == 0 {
		return 100
	}
	return f.max
}

func (f *fakeRepoSearch) Count(_ context.Context, _ domain.Filter) (int, error) {
	return f.count, f.countErr
}

func (f *fakeRepoSearch) Plan(_ context.Context, _ domain.Filter) ([]domain.Partition, error) {
	return f.parts, f.planErr
}

func (f *fakeRepoSearch) Open(_ context.Context, _ domain.Filter) (driving.BatchStream, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

// fakeCatalog implements the catalog port over in-memory maps. Only the
// read side is exercised by the MCP server.
type fakeCatalog struct {
	runs  []domain.HarvestRun
	repos map[string][]domain.Repository
	err   error
}

func (c *fakeCatalog) BeginRun(_ context.Context, _ domain.HarvestRun) error { return c.err }

func (c *fakeCatalog) CompleteRun(_ context.Context, _ string, _, _ int) error { return c.err }

func (c *fakeCatalog) SaveRepositories(_ context.Context, _ string, _ []domain.Repository) error {
	return c.err
}

func (c *fakeCatalog) MarkCloned(_ context.Context, _ string, _ int64, _ string) error {
	return c.err
}

func (c *fakeCatalog) GetRun(_ context.Context, runID string) (*domain.HarvestRun, error) {
	if c.err != nil {
		return nil, c.err
	}
	for i := range c.runs {
		if c.runs[i].ID == runID {
			return &c.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *fakeCatalog) ListRuns(_ context.Context) ([]domain.HarvestRun, error) {
	return c.runs, c.err
}

func (c *fakeCatalog) ListRepositories(_ context.Context, runID string) ([]domain.Repository, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.repos[runID], nil
}

func (c *fakeCatalog) Close() error { return nil }
