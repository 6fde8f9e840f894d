package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// setupTestStore creates a temporary SQLite catalog for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func testRun(id string) domain.HarvestRun {
	return domain.HarvestRun{
		ID:         id,
		Query:      "language:go created:2020-01-01T00:00:00.000Z..2020-12-31T23:59:59.999Z",
		Cap:        100,
		TotalCount: 250,
		StartedAt:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func testRepo(id int64, fullName string, createdAt time.Time) domain.Repository {
	return domain.Repository{
		ID:            id,
		Owner:         "acme",
		Name:          fullName,
		FullName:      "acme/" + fullName,
		Description:   "test repository",
		Language:      "Go",
		DefaultBranch: "main",
		CloneURL:      "https://github.com/acme/" + fullName + ".git",
		HTMLURL:       "https://github.com/acme/" + fullName,
		Stars:         42,
		Forks:         7,
		Fork:          false,
		Archived:      true,
		CreatedAt:     createdAt,
	}
}

func TestNewStore_ErrorHandling(t *testing.T) {
	// Invalid path (should fail to create directory)
	_, err := NewStore("/invalid\x00path/catalog.db")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NotNil(t, store)

	assert.Equal(t, path, store.Path())
	_, err = os.Stat(path)
	assert.NoError(t, err, "database file should exist")
	assert.NoError(t, store.Close())

	t.Run("reopening runs no migrations twice", func(t *testing.T) {
		again, err := NewStore(path)
		require.NoError(t, err)
		assert.NoError(t, again.Close())
	})
}

// TestStore_RunLifecycle tests the begin/complete round trip
func TestStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	run := testRun("run-1")

	require.NoError(t, store.BeginRun(ctx, run))

	t.Run("get returns the open run", func(t *testing.T) {
		got, err := store.GetRun(ctx, "run-1")

		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, run.Query, got.Query)
		assert.Equal(t, run.Cap, got.Cap)
		assert.Equal(t, run.TotalCount, got.TotalCount)
		assert.True(t, got.StartedAt.Equal(run.StartedAt))
		assert.Nil(t, got.CompletedAt, "run has not been completed yet")
		assert.Zero(t, got.Fetched)
	})

	t.Run("complete records the tallies", func(t *testing.T) {
		require.NoError(t, store.CompleteRun(ctx, "run-1", 250, 3))

		got, err := store.GetRun(ctx, "run-1")

		require.NoError(t, err)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, 250, got.Fetched)
		assert.Equal(t, 3, got.CloneErrors)
	})

	t.Run("completing an unknown run fails", func(t *testing.T) {
		err := store.CompleteRun(ctx, "no-such-run", 0, 0)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStore_GetRun_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestStore_ListRuns tests that runs come back newest first.
func TestStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := testRun("run-older")
	newer := testRun("run-newer")
	newer.StartedAt = older.StartedAt.Add(time.Hour)
	require.NoError(t, store.BeginRun(ctx, older))
	require.NoError(t, store.BeginRun(ctx, newer))
	require.NoError(t, store.CompleteRun(ctx, newer.ID, 250, 0))

	runs, err := store.ListRuns(ctx)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-newer", runs[0].ID)
	assert.Equal(t, "run-older", runs[1].ID)
	assert.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, 250, runs[0].Fetched)
	assert.Nil(t, runs[1].CompletedAt)
}

func TestStore_ListRuns_Empty(t *testing.T) {
	store := setupTestStore(t)

	runs, err := store.ListRuns(context.Background())

	require.NoError(t, err)
	assert.Empty(t, runs)
}

// TestStore_SaveRepositories tests batch persistence and ordering
func TestStore_SaveRepositories(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.BeginRun(ctx, testRun("run-1")))

	older := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	batch := []domain.Repository{
		testRepo(2, "widgets", newer),
		testRepo(1, "gadgets", older),
	}

	require.NoError(t, store.SaveRepositories(ctx, "run-1", batch))

	t.Run("lists oldest first", func(t *testing.T) {
		repos, err := store.ListRepositories(ctx, "run-1")

		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "acme/gadgets", repos[0].FullName)
		assert.Equal(t, "acme/widgets", repos[1].FullName)
	})

	t.Run("round-trips every field", func(t *testing.T) {
		repos, err := store.ListRepositories(ctx, "run-1")

		require.NoError(t, err)
		got := repos[1]
		want := testRepo(2, "widgets", newer)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Owner, got.Owner)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.Language, got.Language)
		assert.Equal(t, want.DefaultBranch, got.DefaultBranch)
		assert.Equal(t, want.CloneURL, got.CloneURL)
		assert.Equal(t, want.HTMLURL, got.HTMLURL)
		assert.Equal(t, want.Stars, got.Stars)
		assert.Equal(t, want.Forks, got.Forks)
		assert.Equal(t, want.Fork, got.Fork)
		assert.Equal(t, want.Archived, got.Archived)
		assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	})

	t.Run("saving a duplicate is a no-op", func(t *testing.T) {
		require.NoError(t, store.SaveRepositories(ctx, "run-1", batch[:1]))

		repos, err := store.ListRepositories(ctx, "run-1")

		require.NoError(t, err)
		assert.Len(t, repos, 2)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, store.SaveRepositories(ctx, "run-1", nil))
	})
}

func TestStore_ListRepositories_UnknownRun(t *testing.T) {
	store := setupTestStore(t)

	repos, err := store.ListRepositories(context.Background(), "missing")

	require.NoError(t, err)
	assert.Empty(t, repos)
}

// TestStore_MarkCloned tests clone path recording
func TestStore_MarkCloned(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.BeginRun(ctx, testRun("run-1")))
	created := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRepositories(ctx, "run-1", []domain.Repository{testRepo(1, "gadgets", created)}))

	t.Run("records the path", func(t *testing.T) {
		require.NoError(t, store.MarkCloned(ctx, "run-1", 1, "/corpus/acme/gadgets"))

		var path string
		row := store.db.QueryRow("SELECT cloned_path FROM repositories WHERE run_id = ? AND id = ?", "run-1", 1)
		require.NoError(t, row.Scan(&path))
		assert.Equal(t, "/corpus/acme/gadgets", path)
	})

	t.Run("unknown repository fails", func(t *testing.T) {
		err := store.MarkCloned(ctx, "run-1", 999, "/nowhere")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// TestStore_RunIsolation tests that repositories stay with their run
func TestStore_RunIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.BeginRun(ctx, testRun("run-a")))
	require.NoError(t, store.BeginRun(ctx, testRun("run-b")))
	require.NoError(t, store.SaveRepositories(ctx, "run-a", []domain.Repository{testRepo(1, "gadgets", created)}))
	require.NoError(t, store.SaveRepositories(ctx, "run-b", []domain.Repository{
		testRepo(1, "gadgets", created),
		testRepo(2, "widgets", created.Add(time.Hour)),
	}))

	a, err := store.ListRepositories(ctx, "run-a")
	require.NoError(t, err)
	b, err := store.ListRepositories(ctx, "run-b")
	require.NoError(t, err)

	assert.Len(t, a, 1)
	assert.Len(t, b, 2, "the same repository may appear in several runs")
}
