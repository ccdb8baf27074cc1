package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.TODO(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDefaultDBPathHonorsBasePath(t *testing.T) {
	t.Setenv("SKILLFORGE_BASE_PATH", "/tmp/forge-base")

	path, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/forge-base", "history.db"), path)
}

func TestDefaultDBPathHome(t *testing.T) {
	t.Setenv("SKILLFORGE_BASE_PATH", "")
	t.Setenv("HOME", "/home/alice")

	path, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/alice", ".skillforge", "history.db"), path)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(context.TODO(), dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestRecordAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.TODO()

	first, err := store.RecordRun(ctx, "shop", "local", "react-product",
		[]string{"developer", "reviewer"}, []string{"web-framework-react"}, false)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := store.RecordRun(ctx, "shop", "local", "",
		[]string{"developer"}, nil, true)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)

	for _, run := range runs {
		assert.Equal(t, "shop", run.ProjectName)
		assert.Equal(t, "local", run.InstallMode)
		assert.False(t, run.CreatedAt.IsZero())
		if run.ID == first {
			assert.Equal(t, "react-product", run.StackID)
			assert.Equal(t, []string{"developer", "reviewer"}, run.AgentList())
			assert.Equal(t, []string{"web-framework-react"}, run.SkillList())
			assert.False(t, run.Merged)
		} else {
			assert.Empty(t, run.StackID)
			assert.Equal(t, []string{"developer"}, run.AgentList())
			assert.Nil(t, run.SkillList())
			assert.True(t, run.Merged)
		}
	}
}

func TestListRunsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.TODO()

	for range 5 {
		_, err := store.RecordRun(ctx, "shop", "local", "", nil, nil, false)
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	// Non-positive limits fall back to the default window.
	runs, err = store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestListRunsEmpty(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.ListRuns(context.TODO(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
