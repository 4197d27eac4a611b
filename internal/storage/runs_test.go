package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store, err := NewRunStore(filepath.Join(t.TempDir(), "ledger", "runs.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveRunAssignsID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		Root:        "/repos/acme",
		StartedAt:   time.Now().UTC().Truncate(time.Second),
		FilesParsed: 10,
	}
	require.NoError(t, store.SaveRun(ctx, run, nil))
	assert.NotEmpty(t, run.ID)
}

func TestSaveAndLoadRunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		ID:            "run-1",
		Root:          "/repos/acme",
		StartedAt:     time.Now().UTC().Truncate(time.Second),
		DurationMS:    4200,
		FilesParsed:   120,
		FilesFailed:   2,
		Nodes:         900,
		Relationships: 2100,
		Batches:       14,
	}
	errs := []RunError{
		{Path: "src/Broken.java", Message: "syntax error at line 3"},
		{Path: "src/Alpha.java", Message: "unreadable"},
	}
	require.NoError(t, store.SaveRun(ctx, run, errs))

	got, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, "/repos/acme", got.Root)
	assert.Equal(t, int64(4200), got.DurationMS)
	assert.Equal(t, 120, got.FilesParsed)
	assert.Equal(t, 2, got.FilesFailed)
	assert.Equal(t, int64(900), got.Nodes)
	assert.Equal(t, int64(2100), got.Relationships)
	assert.Equal(t, 14, got.Batches)
	assert.Equal(t, 4200*time.Millisecond, got.Duration())

	failures, err := store.RunErrors(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "src/Alpha.java", failures[0].Path)
	assert.Equal(t, "src/Broken.java", failures[1].Path)
	assert.Equal(t, "run-1", failures[1].RunID)
	assert.Equal(t, "syntax error at line 3", failures[1].Message)
}

func TestResaveReplacesErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{ID: "run-1", Root: "/repos/acme", StartedAt: time.Now().UTC()}
	first := []RunError{{Path: "src/A.java", Message: "bad"}}
	require.NoError(t, store.SaveRun(ctx, run, first))

	run.FilesFailed = 1
	second := []RunError{{Path: "src/B.java", Message: "worse"}}
	require.NoError(t, store.SaveRun(ctx, run, second))

	failures, err := store.RunErrors(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "src/B.java", failures[0].Path)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &Run{
			ID:        []string{"run-a", "run-b", "run-c"}[i],
			Root:      "/repos/acme",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.SaveRun(ctx, run, nil))
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
}

func TestLatestRunEmptyLedger(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
