package state

import "encoding/json"

// TaskHistory is an ordered map from task id to that task's attempt records.
// Insertion order of task ids is preserved across serialization so that
// load(save(x)) reproduces x exactly.
type TaskHistory struct {
	order   []string
	entries map[string][]MemoryRecord
}

// historyEntry is the serialized form of one task's history.
type historyEntry struct {
	TaskID  string         `json:"task_id"`
	Records []MemoryRecord `json:"records"`
}

// Append adds a record to the task's history, creating the entry if this is
// the first record for the task id. It reports whether a new entry was
// created.
func (h *TaskHistory) Append(taskID string, rec MemoryRecord) bool {
	if h.entries == nil {
		h.entries = make(map[string][]MemoryRecord)
	}
	_, exists := h.entries[taskID]
	if !exists {
		h.order = append(h.order, taskID)
	}
	h.entries[taskID] = append(h.entries[taskID], rec)
	return !exists
}

// Get returns the records for a task id in insertion order, or nil.
func (h *TaskHistory) Get(taskID string) []MemoryRecord {
	return h.entries[taskID]
}

// Len returns the number of distinct task ids.
func (h *TaskHistory) Len() int {
	return len(h.order)
}

// TaskIDs returns the task ids in insertion order.
func (h *TaskHistory) TaskIDs() []string {
	ids := make([]string, len(h.order))
	copy(ids, h.order)
	return ids
}

// Complete reports whether any record for the task id succeeded. Completion
// is monotonic: appending further records never reverts it.
func (h *TaskHistory) Complete(taskID string) bool {
	for _, rec := range h.entries[taskID] {
		if rec.Success {
			return true
		}
	}
	return false
}

// clone returns a deep copy of the history.
func (h *TaskHistory) clone() TaskHistory {
	out := TaskHistory{
		order:   append([]string(nil), h.order...),
		entries: make(map[string][]MemoryRecord, len(h.entries)),
	}
	for id, recs := range h.entries {
		out.entries[id] = append([]MemoryRecord(nil), recs...)
	}
	return out
}

// MarshalJSON serializes the history as an array of {task_id, records}
// entries in insertion order.
func (h TaskHistory) MarshalJSON() ([]byte, error) {
	out := make([]historyEntry, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, historyEntry{TaskID: id, Records: h.entries[id]})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the ordered map from the serialized entry array.
func (h *TaskHistory) UnmarshalJSON(data []byte) error {
	var entries []historyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	h.order = nil
	h.entries = make(map[string][]MemoryRecord, len(entries))
	for _, e := range entries {
		h.order = append(h.order, e.TaskID)
		h.entries[e.TaskID] = e.Records
	}
	return nil
}
