package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddMemoryEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), 3)
	store.Load()

	for i := 0; i < 5; i++ {
		rec := record(ActionRulesOnly, true)
		rec.Decision.Reasoning = fmt.Sprintf("attempt %d", i)
		store.AddMemory(rec)
	}

	recent := store.RecentMemories(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "attempt 2", recent[0].Decision.Reasoning)
	assert.Equal(t, "attempt 3", recent[1].Decision.Reasoning)
	assert.Equal(t, "attempt 4", recent[2].Decision.Reasoning)
}

func TestStore_RecentMemories(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), 10)
	store.Load()

	assert.Nil(t, store.RecentMemories(5))

	store.AddMemory(record(ActionSkip, true))
	store.AddMemory(record(ActionRulesOnly, false))

	assert.Len(t, store.RecentMemories(1), 1)
	assert.Len(t, store.RecentMemories(5), 2)
	assert.Nil(t, store.RecentMemories(0))
}

func TestStore_StatsTrackTasksAndAttempts(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), 10)
	store.Load()

	store.AddTaskHistory("task-1", record(ActionRulesOnly, false))
	store.AddTaskHistory("task-1", record(ActionRulesOnly, true))
	store.AddTaskHistory("task-2", record(ActionSkip, true))

	stats := store.Stats()
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 2, stats.SuccessfulTasks)
	assert.Equal(t, 1, stats.FailedTasks)
	assert.False(t, stats.LastRun.IsZero())

	assert.True(t, store.Complete("task-1"))
	assert.True(t, store.Complete("task-2"))
}

func TestStore_FailingRecordsNeverComplete(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), 10)
	store.Load()

	for i := 0; i < 4; i++ {
		store.AddTaskHistory("task-1", record(ActionGenerativeProposal, false))
	}

	assert.False(t, store.Complete("task-1"))
	assert.Len(t, store.History("task-1"), 4)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(dir, 10)
	store.Load()

	store.AddMemory(record(ActionAutoApply, true))
	store.AddTaskHistory("task-b", record(ActionRulesOnly, false))
	store.AddTaskHistory("task-a", record(ActionRulesOnly, true))
	require.NoError(t, store.Save())

	fresh := NewStore(dir, 10)
	fresh.Load()

	want := store.Snapshot()
	got := fresh.Snapshot()
	assert.Equal(t, want.Memories, got.Memories)
	assert.Equal(t, want.Stats, got.Stats)
	assert.Equal(t, want.TaskHistory.TaskIDs(), got.TaskHistory.TaskIDs())
	assert.Equal(t, want.TaskHistory.Get("task-a"), got.TaskHistory.Get("task-a"))
	assert.Equal(t, want.TaskHistory.Get("task-b"), got.TaskHistory.Get("task-b"))
}

func TestStore_LoadMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "nested", "state"), 10)
	store.Load()

	snap := store.Snapshot()
	assert.Empty(t, snap.Memories)
	assert.Equal(t, 0, snap.Stats.TotalTasks)
}

func TestStore_LoadCorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0o644))

	store := NewStore(dir, 10)
	store.Load()

	snap := store.Snapshot()
	assert.Empty(t, snap.Memories)
	assert.Equal(t, Stats{}, snap.Stats)
}

func TestStore_PersistFailureKeepsStateAndRetries(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "state")
	store := NewStore(dir, 10)
	store.Load()

	// Block the state directory so the flush inside each mutation fails.
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	store.AddMemory(record(ActionRulesOnly, true))
	store.AddTaskHistory("task-1", record(ActionRulesOnly, true))

	// The mutations survive in memory even though nothing was flushed.
	snap := store.Snapshot()
	require.Len(t, snap.Memories, 1)
	assert.Equal(t, 1, snap.Stats.TotalTasks)
	assert.True(t, snap.TaskHistory.Complete("task-1"))

	// Once the directory is writable again, the next mutation flushes
	// everything accumulated so far.
	require.NoError(t, os.Chmod(dir, 0o755))
	store.AddTaskHistory("task-2", record(ActionSkip, true))

	reloaded := NewStore(dir, 10)
	reloaded.Load()
	loaded := reloaded.Snapshot()
	assert.Len(t, loaded.Memories, 1)
	assert.Equal(t, 2, loaded.TaskHistory.Len())
	assert.True(t, loaded.TaskHistory.Complete("task-1"))
}

func TestStore_SaveCreatesParentDirs(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	store := NewStore(dir, 10)
	store.Load()

	require.NoError(t, store.Save())
	_, err := os.Stat(filepath.Join(dir, "state.json"))
	assert.NoError(t, err)
}
