// Package state holds the agent's durable memory: decision records, per-task
// attempt histories, and aggregate stats, persisted as a single state.json
// under the configured state directory.
//
// One Store instance owns its state file exclusively. Concurrent processes
// sharing the same persistence location are unsupported.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pipewright/pipewright/internal/logging"
)

// DefaultMaxMemories bounds the rolling memory window when no limit is
// configured.
const DefaultMaxMemories = 50

// Store manages the agent state and its persistence. Mutations are flushed
// synchronously; persistence failures are logged, kept in memory, and
// retried on the next mutation rather than surfaced to the caller.
type Store struct {
	dir         string
	maxMemories int
	log         *logging.Logger
	state       AgentState
}

// NewStore creates a Store rooted at the given state directory. The state
// starts empty; call Load to read any persisted state.
func NewStore(dir string, maxMemories int) *Store {
	if maxMemories <= 0 {
		maxMemories = DefaultMaxMemories
	}
	return &Store{
		dir:         dir,
		maxMemories: maxMemories,
		log:         logging.With("component", "state"),
	}
}

// path returns the state file location.
func (s *Store) path() string {
	return filepath.Join(s.dir, "state.json")
}

// Load reads the persisted state if present. A missing file starts empty; a
// read or parse failure is logged and also starts empty, never surfaced.
func (s *Store) Load() {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read state file, starting empty", "path", s.path(), "error", err)
		}
		s.state = AgentState{}
		return
	}

	var st AgentState
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.Warn("failed to parse state file, starting empty", "path", s.path(), "error", err)
		s.state = AgentState{}
		return
	}
	s.state = st
}

// Save serializes the full state atomically: write to a temp file in the
// state directory, then rename over the published path.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// persist flushes the state and logs failures instead of returning them.
// The in-memory state stays correct either way and the next mutation
// retries the write.
func (s *Store) persist() {
	if err := s.Save(); err != nil {
		s.log.Warn("failed to persist state, will retry on next mutation", "error", err)
	}
}

// AddMemory appends a record to the rolling memory, evicting the oldest
// record once the window exceeds the configured cap.
func (s *Store) AddMemory(rec MemoryRecord) {
	s.state.Memories = append(s.state.Memories, rec)
	if len(s.state.Memories) > s.maxMemories {
		s.state.Memories = s.state.Memories[len(s.state.Memories)-s.maxMemories:]
	}
	s.persist()
}

// AddTaskHistory appends a record to the task's history and updates stats:
// TotalTasks tracks distinct task ids, and each record increments exactly
// one of the success or failure counters.
func (s *Store) AddTaskHistory(taskID string, rec MemoryRecord) {
	if s.state.TaskHistory.Append(taskID, rec) {
		s.state.Stats.TotalTasks = s.state.TaskHistory.Len()
	}
	if rec.Success {
		s.state.Stats.SuccessfulTasks++
	} else {
		s.state.Stats.FailedTasks++
	}
	s.state.Stats.LastRun = time.Now().UTC()
	s.persist()
}

// RecentMemories returns the most recent n records, oldest first.
func (s *Store) RecentMemories(n int) []MemoryRecord {
	if n <= 0 || len(s.state.Memories) == 0 {
		return nil
	}
	if n > len(s.state.Memories) {
		n = len(s.state.Memories)
	}
	out := make([]MemoryRecord, n)
	copy(out, s.state.Memories[len(s.state.Memories)-n:])
	return out
}

// History returns the attempt records for a task id in insertion order.
func (s *Store) History(taskID string) []MemoryRecord {
	recs := s.state.TaskHistory.Get(taskID)
	out := make([]MemoryRecord, len(recs))
	copy(out, recs)
	return out
}

// Complete reports whether the task has any successful attempt on record.
func (s *Store) Complete(taskID string) bool {
	return s.state.TaskHistory.Complete(taskID)
}

// Stats returns a copy of the aggregate stats.
func (s *Store) Stats() Stats {
	return s.state.Stats
}

// Snapshot returns a deep copy of the full agent state.
func (s *Store) Snapshot() AgentState {
	return AgentState{
		Memories:    append([]MemoryRecord(nil), s.state.Memories...),
		TaskHistory: s.state.TaskHistory.clone(),
		Stats:       s.state.Stats,
	}
}
