// Package orchestrator sequences decision-engine runs into named workflows
// and owns the run-loop task queue. Each Orchestrator owns exactly one
// engine and its state store; workflows run strictly sequentially.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/pipewright/pipewright/internal/change"
	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/engine"
	"github.com/pipewright/pipewright/internal/logging"
	"github.com/pipewright/pipewright/internal/state"
)

// Options holds the orchestrator's dependencies. Rules, Proposer, and
// Validator are required; Config falls back to defaults and Changes is
// optional.
type Options struct {
	Config    *config.Config
	Rules     engine.RuleApplier
	Proposer  engine.Proposer
	Validator engine.Validator
	Changes   engine.ChangeSource
	Logger    *logging.Logger
}

// Orchestrator owns a decision engine and its state store and exposes the
// update, analysis, batch, and auto-update workflows plus the queued
// run-loop mode.
type Orchestrator struct {
	cfg    *config.Config
	store  *state.Store
	engine *engine.Engine
	log    *logging.Logger

	// runMu serializes engine runs: the store's read-modify-persist cycle
	// is not safe under concurrent writers.
	runMu sync.Mutex

	mu      sync.Mutex
	queue   []*engine.Task
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New constructs an Orchestrator with its own state store and engine.
// The store is loaded from the configured state directory.
func New(opts Options) *Orchestrator {
	cfg := opts.Config
	if cfg == nil {
		c := config.DefaultConfig()
		cfg = &c
	}
	log := opts.Logger
	if log == nil {
		log = logging.With("component", "orchestrator")
	}

	store := state.NewStore(cfg.StateDir, cfg.Limits.MaxMemories)
	store.Load()

	eng := engine.New(engine.Options{
		Store:          store,
		Rules:          opts.Rules,
		Proposer:       opts.Proposer,
		Validator:      opts.Validator,
		Changes:        opts.Changes,
		RecentMemories: cfg.Limits.RecentMemories,
		RetryCeiling:   cfg.Limits.RetryCeiling,
	})

	return &Orchestrator{
		cfg:    cfg,
		store:  store,
		engine: eng,
		log:    log,
	}
}

// ImpactAnalysis is the outcome of the AnalyzeImpact workflow.
type ImpactAnalysis struct {
	ImpactScore    float64 `json:"impact_score"`
	RequiresReview bool    `json:"requires_review"`
	Reasoning      string  `json:"reasoning"`
	Recommendation string  `json:"recommendation"`
}

// Document names one task-definition text for batch processing.
type Document struct {
	Name string
	Text string
}

// DocumentResult is the per-document outcome of a batch update.
type DocumentResult struct {
	Name     string `json:"name"`
	Success  bool   `json:"success"`
	Document string `json:"document,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchResult aggregates a batch update run.
type BatchResult struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []DocumentResult `json:"results"`
}

// AutoUpdateResult is the outcome of the threshold-gated AutoUpdate
// workflow.
type AutoUpdateResult struct {
	Applied  bool            `json:"applied"`
	Document string          `json:"document"`
	Analysis *ImpactAnalysis `json:"analysis"`
	Reason   string          `json:"reason"`
}

// newTaskID mints a unique task id.
func newTaskID() string {
	return ulid.Make().String()
}

// runTask runs one task through the engine under the run lock.
func (o *Orchestrator) runTask(ctx context.Context, task *engine.Task) (*state.MemoryRecord, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	return o.engine.Run(ctx, task)
}

// ProposeUpdate runs an update task to completion and returns the updated
// document text. It fails with the recorded error when the last attempt was
// unsuccessful.
func (o *Orchestrator) ProposeUpdate(ctx context.Context, document string, changes []change.Descriptor) (string, error) {
	task := engine.NewTask(newTaskID(), engine.UpdatePayload{Document: document, Changes: changes}, 0)

	rec, err := o.runTask(ctx, task)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", errors.New("no decision recorded")
	}
	if !rec.Success {
		return "", fmt.Errorf("update failed: %s", rec.Result.Error)
	}
	if rec.Result.Document == "" {
		// Skip decisions leave the document unchanged.
		return document, nil
	}
	return rec.Result.Document, nil
}

// AnalyzeImpact scores the change set against the document without
// requiring the caller to apply anything. RequiresReview is read from the
// recorded execution result, not recomputed.
func (o *Orchestrator) AnalyzeImpact(ctx context.Context, document string, changes []change.Descriptor) (*ImpactAnalysis, error) {
	task := engine.NewTask(newTaskID(), engine.AnalyzePayload{Document: document, Changes: changes}, 0)

	rec, err := o.runTask(ctx, task)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("no decision recorded")
	}
	if !rec.Success {
		return nil, fmt.Errorf("impact analysis failed: %s", rec.Result.Error)
	}

	analysis := &ImpactAnalysis{Reasoning: rec.Decision.Reasoning}
	if rec.Result.Impact != nil {
		analysis.ImpactScore = rec.Result.Impact.Score
		analysis.RequiresReview = rec.Result.Impact.RequiresReview
		analysis.Recommendation = rec.Result.Impact.Recommendation
	}
	return analysis, nil
}

// BatchUpdate runs an independent update task per document, strictly
// sequentially. A failure in one document never aborts the batch.
func (o *Orchestrator) BatchUpdate(ctx context.Context, documents []Document, changes []change.Descriptor) *BatchResult {
	result := &BatchResult{Total: len(documents)}

	for _, doc := range documents {
		updated, err := o.ProposeUpdate(ctx, doc.Text, changes)
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, DocumentResult{
				Name:  doc.Name,
				Error: err.Error(),
			})
			o.log.Warn("batch document failed", "document", doc.Name, "error", err)
			continue
		}
		result.Successful++
		result.Results = append(result.Results, DocumentResult{
			Name:     doc.Name,
			Success:  true,
			Document: updated,
		})
	}
	return result
}

// AutoUpdate analyzes impact first and applies the update only when the
// analysis does not require review and the score is within the threshold.
func (o *Orchestrator) AutoUpdate(ctx context.Context, document string, changes []change.Descriptor, threshold float64) (*AutoUpdateResult, error) {
	analysis, err := o.AnalyzeImpact(ctx, document, changes)
	if err != nil {
		return nil, err
	}

	if analysis.RequiresReview || analysis.ImpactScore > threshold {
		return &AutoUpdateResult{
			Applied:  false,
			Document: document,
			Analysis: analysis,
			Reason:   fmt.Sprintf("impact score %.2f requires review or exceeds threshold %.2f", analysis.ImpactScore, threshold),
		}, nil
	}

	updated, err := o.ProposeUpdate(ctx, document, changes)
	if err != nil {
		return nil, err
	}
	return &AutoUpdateResult{
		Applied:  true,
		Document: updated,
		Analysis: analysis,
		Reason:   "impact within threshold, update applied",
	}, nil
}

// State returns a read-only snapshot of the agent state.
func (o *Orchestrator) State() state.AgentState {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	return o.store.Snapshot()
}
