package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
)

// --- Mock implementations ---

// parseCreatedWindow recovers the half-open window from a serialized
// query so fakes can answer window questions without extra plumbing.
func parseCreatedWindow(t *testing.T, query string) (start, end time.Time) {
	t.Helper()

	const marker = "created:"
	idx := strings.LastIndex(query, marker)
	require.GreaterOrEqual(t, idx, 0, "query %q has no created window", query)

	rng := query[idx+len(marker):]
	if sp := strings.IndexByte(rng, ' '); sp >= 0 {
		rng = rng[:sp]
	}
	parts := strings.SplitN(rng, "..", 2)
	require.Len(t, parts, 2)

	min, err := time.Parse(domain.WireTimeLayout, parts[0])
	require.NoError(t, err)
	max, err := time.Parse(domain.WireTimeLayout, parts[1])
	require.NoError(t, err)

	// The wire max is inclusive; the window end is exclusive.
	return min, max.Add(time.Millisecond)
}

// proportionalOracle implements driven.SearchClient as a consistent
// count oracle: repositories are spread uniformly over
// [rootStart, rootEnd), so any window's count is a floor interpolation
// of its width and sibling windows always sum to their parent.
type proportionalOracle struct {
	t         *testing.T
	rootStart time.Time
	rootEnd   time.Time
	total     int

	countCalls  int
	fetchCalls  int
	failOnCount int // 1-based count call that fails; 0 disables
	failOnFetch int // 1-based fetch call that fails; 0 disables
	countErr    error
	fetchErr    error
}

var _ driven.SearchClient = (*proportionalOracle)(nil)

// cumulative returns how many repositories were created before x.
func (o *proportionalOracle) cumulative(x time.Time) int {
	if !x.After(o.rootStart) {
		return 0
	}
	if !x.Before(o.rootEnd) {
		return o.total
	}
	num := x.Sub(o.rootStart).Milliseconds()
	den := o.rootEnd.Sub(o.rootStart).Milliseconds()
	return int(int64(o.total) * num / den)
}

func (o *proportionalOracle) Count(_ context.Context, query string) (int, error) {
	o.countCalls++
	if o.failOnCount > 0 && o.countCalls == o.failOnCount {
		return 0, o.countErr
	}
	start, end := parseCreatedWindow(o.t, query)
	return o.cumulative(end) - o.cumulative(start), nil
}

func (o *proportionalOracle) FetchPage(_ context.Context, query string, pageSize int) ([]domain.Repository, error) {
	o.fetchCalls++
	if o.failOnFetch > 0 && o.fetchCalls == o.failOnFetch {
		return nil, o.fetchErr
	}

	start, end := parseCreatedWindow(o.t, query)
	count := o.cumulative(end) - o.cumulative(start)
	if count > pageSize {
		count = pageSize
	}

	base := o.cumulative(start)
	repos := make([]domain.Repository, count)
	for i := range repos {
		ordinal := base + i
		repos[i] = domain.Repository{
			ID:        int64(ordinal + 1),
			Owner:     "acme",
			Name:      fmt.Sprintf("repo-%04d", ordinal),
			FullName:  fmt.Sprintf("acme/repo-%04d", ordinal),
			Language:  "Go",
			CreatedAt: start,
		}
	}
	return repos, nil
}

// fixedCountClient implements driven.SearchClient answering every count
// with the same number. Useful for forcing degenerate splits.
type fixedCountClient struct {
	count      int
	countCalls int
	fetchCalls int
}

var _ driven.SearchClient = (*fixedCountClient)(nil)

func (c *fixedCountClient) Count(_ context.Context, _ string) (int, error) {
	c.countCalls++
	return c.count, nil
}

func (c *fixedCountClient) FetchPage(_ context.Context, _ string, _ int) ([]domain.Repository, error) {
	c.fetchCalls++
	return nil, nil
}

// yearWindow returns the 2020 calendar year as a half-open window.
// 2020 is a leap year: 366 days, an even number of milliseconds, so
// repeated bisection stays exact for a while.
func yearWindow() (time.Time, time.Time) {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
}
