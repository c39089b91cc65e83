package engine

import "github.com/pipewright/pipewright/internal/change"

// Kind identifies what a task asks the engine to do.
type Kind string

// Task kinds.
const (
	KindUpdateTask     Kind = "update-task"
	KindAnalyzeImpact  Kind = "analyze-impact"
	KindMonitorChanges Kind = "monitor-changes"
	KindBatchUpdate    Kind = "batch-update"
)

// Payload carries the kind-specific inputs of a task. Each kind has its own
// payload type so the reasoning step reads typed fields instead of probing
// an open map.
type Payload interface {
	taskKind() Kind
}

// UpdatePayload is the input of an UpdateTask: the document to patch and
// the change set to apply.
type UpdatePayload struct {
	Document string
	Changes  []change.Descriptor
}

func (UpdatePayload) taskKind() Kind { return KindUpdateTask }

// AnalyzePayload is the input of an AnalyzeImpact task.
type AnalyzePayload struct {
	Document string
	Changes  []change.Descriptor
}

func (AnalyzePayload) taskKind() Kind { return KindAnalyzeImpact }

// MonitorPayload is the input of a MonitorChanges task: a change source
// path or handle to poll.
type MonitorPayload struct {
	Source string
}

func (MonitorPayload) taskKind() Kind { return KindMonitorChanges }

// BatchPayload is the input of a BatchUpdate task. The orchestrator expands
// batches into independent update tasks, so the engine never reasons about
// this payload directly.
type BatchPayload struct {
	Documents []string
	Changes   []change.Descriptor
}

func (BatchPayload) taskKind() Kind { return KindBatchUpdate }

// Task is one unit of work for the engine. Tasks are immutable except for
// RetryCount, which the orchestrator increments on re-enqueue.
type Task struct {
	ID         string
	Kind       Kind
	Priority   int
	RetryCount int
	Payload    Payload
}

// NewTask creates a Task with its kind derived from the payload.
func NewTask(id string, payload Payload, priority int) *Task {
	t := &Task{ID: id, Priority: priority, Payload: payload}
	if payload != nil {
		t.Kind = payload.taskKind()
	}
	return t
}
