package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// planArgs pins the creation window runPlan prints; the fixture plan
// itself is canned.
var planArgs = []string{"plan", "--created-from", "2020-01-01", "--created-to", "2021-01-01"}

func TestPlanCmd_Use(t *testing.T) {
	assert.Equal(t, "plan", planCmd.Use)
	assert.Equal(t, "Show how the filter would be partitioned, without fetching", planCmd.Short)
}

func TestPlanCmd_PrintsPartitionTable(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() {
		planFilter = filterFlags{}
		resetFlags(planCmd)
	}()

	output, err := executeCommand(t, planArgs...)
	require.NoError(t, err)

	assert.Contains(t, output, "Window: [2020-01-01T00:00:00.000Z, 2021-01-01T00:00:00.000Z)")
	assert.Contains(t, output, "Total:  5 repositories (cap 100 per partition)")
	assert.Contains(t, output, "1  [2020-01-01T00:00:00.000Z, 2020-07-02T00:00:00.000Z) count=3")
	assert.Contains(t, output, "2  [2020-07-02T00:00:00.000Z, 2021-01-01T00:00:00.000Z) count=2")
	assert.Contains(t, output, "2 partitions, 2 non-empty: full retrieval costs 2 page fetches.")
}

func TestPlanCmd_CountsEmptyPartitions(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() {
		planFilter = filterFlags{}
		resetFlags(planCmd)
	}()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2020, 7, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	searchService = &fakeRepoSearch{
		parts: []domain.Partition{
			{Count: 2, Start: start, End: mid},
			{Count: 0, Start: mid, End: end},
		},
	}

	output, err := executeCommand(t, planArgs...)
	require.NoError(t, err)

	assert.Contains(t, output, "Total:  2 repositories")
	assert.Contains(t, output, "2 partitions, 1 non-empty: full retrieval costs 1 page fetches.")
}

func TestPlanCmd_PlanError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	searchService = &fakeRepoSearch{planErr: domain.ErrCreatedUnbounded}

	_, err := executeCommand(t, "plan")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCreatedUnbounded)
	assert.Contains(t, err.Error(), "planning failed")
}

func TestRunPlan_NotConfigured(t *testing.T) {
	oldService := searchService
	searchService = nil
	defer func() { searchService = oldService }()

	err := runPlan(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}
