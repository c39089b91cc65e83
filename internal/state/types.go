package state

import (
	"time"

	"github.com/pipewright/pipewright/internal/change"
)

// Decision action values produced by the reasoning step.
const (
	ActionRulesOnly          = "rules-only"
	ActionGenerativeProposal = "generative-proposal"
	ActionFlagForReview      = "flag-for-review"
	ActionAutoApply          = "auto-apply"
	ActionCheckChanges       = "check-changes"
	ActionSkip               = "skip"
)

// Decision is the outcome of one reasoning step. It is produced once per
// loop iteration and never mutated afterwards.
type Decision struct {
	Action     string            `json:"action"`
	Reasoning  string            `json:"reasoning"`
	Confidence float64           `json:"confidence"`
	Final      bool              `json:"final"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ImpactReport carries the analysis outcome for review-gated actions.
type ImpactReport struct {
	Score          float64 `json:"score"`
	RequiresReview bool    `json:"requires_review"`
	Recommendation string  `json:"recommendation"`
}

// ExecutionResult is the outcome of performing a decision's action.
type ExecutionResult struct {
	Success  bool                `json:"success"`
	Document string              `json:"document,omitempty"`
	Notes    []string            `json:"notes,omitempty"`
	Impact   *ImpactReport       `json:"impact,omitempty"`
	Changes  []change.Descriptor `json:"changes,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// MemoryRecord pairs a decision with its execution outcome. Records are
// append-only and owned exclusively by the Store.
type MemoryRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Decision  Decision        `json:"decision"`
	Result    ExecutionResult `json:"result"`
	Success   bool            `json:"success"`
}

// Stats aggregates task outcomes across the store's lifetime.
// TotalTasks always equals the number of distinct task ids in the history;
// SuccessfulTasks and FailedTasks count individual attempts.
type Stats struct {
	TotalTasks      int       `json:"total_tasks"`
	SuccessfulTasks int       `json:"successful_tasks"`
	FailedTasks     int       `json:"failed_tasks"`
	LastRun         time.Time `json:"last_run"`
}

// AgentState is the full persisted state: the rolling memory window, the
// per-task attempt histories, and the aggregate stats.
type AgentState struct {
	Memories    []MemoryRecord `json:"memories"`
	TaskHistory TaskHistory    `json:"task_history"`
	Stats       Stats          `json:"stats"`
}
