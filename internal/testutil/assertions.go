package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/state"
)

// AssertTaskComplete asserts that the task has at least one successful record.
func AssertTaskComplete(t *testing.T, history state.TaskHistory, taskID string) {
	t.Helper()
	require.NotZero(t, len(history.Get(taskID)), "no records for task %s", taskID)
	assert.True(t, history.Complete(taskID), "task %s not complete", taskID)
}

// AssertTaskFailed asserts that the task has records but none succeeded.
func AssertTaskFailed(t *testing.T, history state.TaskHistory, taskID string) {
	t.Helper()
	require.NotZero(t, len(history.Get(taskID)), "no records for task %s", taskID)
	assert.False(t, history.Complete(taskID), "task %s unexpectedly complete", taskID)
}
