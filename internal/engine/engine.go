// Package engine implements the decision loop that drives task-definition
// updates: observe the task and its history, reason about what to do, execute
// exactly one collaborator path, and record the outcome in the state store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pipewright/pipewright/internal/change"
	"github.com/pipewright/pipewright/internal/impact"
	"github.com/pipewright/pipewright/internal/logging"
	"github.com/pipewright/pipewright/internal/proposer"
	"github.com/pipewright/pipewright/internal/rules"
	"github.com/pipewright/pipewright/internal/state"
)

// DefaultRecentMemories is how many recent records the observe step gathers
// when no window is configured.
const DefaultRecentMemories = 5

// DefaultRetryCeiling is how many prior attempts a task may accumulate
// before the engine escalates to human intervention.
const DefaultRetryCeiling = 3

// Validator checks a document after every mutation path.
type Validator interface {
	Validate(text string) error
}

// RuleApplier runs deterministic pattern rules over a document.
type RuleApplier interface {
	Apply(text string, changes []change.Descriptor) ([]rules.Result, error)
}

// Proposer produces a generative patch proposal. Implementations may be
// no-op passthroughs when no generation backend is configured.
type Proposer interface {
	Propose(ctx context.Context, text string, changes []change.Descriptor) (*proposer.Proposal, error)
}

// ChangeSource loads change descriptors from a path or handle.
type ChangeSource interface {
	Load(source string) ([]change.Descriptor, error)
}

// ChangeSourceFunc adapts a plain function to the ChangeSource interface.
type ChangeSourceFunc func(source string) ([]change.Descriptor, error)

// Load calls the wrapped function.
func (f ChangeSourceFunc) Load(source string) ([]change.Descriptor, error) {
	return f(source)
}

// Options holds the engine's dependencies. Store, Rules, Proposer, and
// Validator are required; Changes is optional.
type Options struct {
	Store          *state.Store
	Rules          RuleApplier
	Proposer       Proposer
	Validator      Validator
	Changes        ChangeSource
	RecentMemories int
	RetryCeiling   int
	Logger         *logging.Logger
}

// Engine runs the observe/reason/execute/update loop for one task at a time.
type Engine struct {
	store        *state.Store
	rules        RuleApplier
	proposer     Proposer
	validator    Validator
	changes      ChangeSource
	recentN      int
	retryCeiling int
	log          *logging.Logger
}

// New creates an Engine with explicit options, applying defaults for the
// tunable knobs.
func New(opts Options) *Engine {
	recentN := opts.RecentMemories
	if recentN <= 0 {
		recentN = DefaultRecentMemories
	}
	ceiling := opts.RetryCeiling
	if ceiling <= 0 {
		ceiling = DefaultRetryCeiling
	}
	log := opts.Logger
	if log == nil {
		log = logging.With("component", "engine")
	}
	return &Engine{
		store:        opts.Store,
		rules:        opts.Rules,
		proposer:     opts.Proposer,
		validator:    opts.Validator,
		changes:      opts.Changes,
		recentN:      recentN,
		retryCeiling: ceiling,
		log:          log,
	}
}

// observation is the input of one reasoning step.
type observation struct {
	recent  []state.MemoryRecord
	history []state.MemoryRecord
}

// Run drives the task through the decision loop until the decision is final,
// an execution fails, or the task is complete. It returns the last recorded
// memory record.
func (e *Engine) Run(ctx context.Context, task *Task) (*state.MemoryRecord, error) {
	if task == nil || task.ID == "" {
		return nil, errors.New("task must have an id")
	}

	var last *state.MemoryRecord
	for {
		if e.store.Complete(task.ID) {
			if last == nil {
				if recs := e.store.History(task.ID); len(recs) > 0 {
					rec := recs[len(recs)-1]
					last = &rec
				}
			}
			return last, nil
		}
		if err := ctx.Err(); err != nil {
			return last, err
		}

		obs := e.observe(task)
		dec := e.reason(task, obs)
		res := e.execute(ctx, task, dec)

		rec := state.MemoryRecord{
			Timestamp: time.Now().UTC(),
			Decision:  dec,
			Result:    res,
			Success:   res.Success,
		}
		e.store.AddMemory(rec)
		e.store.AddTaskHistory(task.ID, rec)
		last = &rec

		e.log.Debug("loop iteration recorded",
			"task", task.ID, "action", dec.Action, "success", res.Success)

		if dec.Final || !res.Success {
			return last, nil
		}
	}
}

// observe gathers the task's context: the most recent memory records and the
// task's full attempt history. No side effects.
func (e *Engine) observe(task *Task) observation {
	return observation{
		recent:  e.store.RecentMemories(e.recentN),
		history: e.store.History(task.ID),
	}
}

// reason decides the next action by pure dispatch on the task kind.
func (e *Engine) reason(task *Task, obs observation) state.Decision {
	switch p := task.Payload.(type) {
	case UpdatePayload:
		return e.reasonUpdate(p, obs)
	case AnalyzePayload:
		return e.reasonAnalyze(p)
	case MonitorPayload:
		return state.Decision{
			Action:     state.ActionCheckChanges,
			Reasoning:  "polling configured change source for new upstream changes",
			Confidence: 0.6,
			Metadata:   map[string]string{"source": p.Source},
		}
	default:
		return state.Decision{
			Action:     state.ActionSkip,
			Reasoning:  fmt.Sprintf("unknown task kind %q, nothing to do", task.Kind),
			Confidence: 0,
			Final:      true,
		}
	}
}

func (e *Engine) reasonUpdate(p UpdatePayload, obs observation) state.Decision {
	if p.Document == "" {
		return state.Decision{
			Action:     state.ActionSkip,
			Reasoning:  "no document supplied, nothing to update",
			Confidence: 1.0,
			Final:      true,
		}
	}
	if len(p.Changes) == 0 {
		return state.Decision{
			Action:     state.ActionSkip,
			Reasoning:  "change set is empty, nothing to apply",
			Confidence: 1.0,
			Final:      true,
		}
	}
	if len(obs.history) > e.retryCeiling {
		return state.Decision{
			Action:     state.ActionSkip,
			Reasoning:  fmt.Sprintf("needs human intervention after %d attempts", len(obs.history)),
			Confidence: 1.0,
			Final:      true,
		}
	}

	for _, c := range p.Changes {
		if impact.Complex(c) {
			return state.Decision{
				Action:     state.ActionGenerativeProposal,
				Reasoning:  fmt.Sprintf("change %q lacks deterministic structure, proposing a generative patch", c.ID),
				Confidence: 0.8,
			}
		}
	}
	return state.Decision{
		Action:     state.ActionRulesOnly,
		Reasoning:  "all changes match deterministic rules, applying rules only",
		Confidence: 0.5,
	}
}

func (e *Engine) reasonAnalyze(p AnalyzePayload) state.Decision {
	score := impact.Score(p.Changes, p.Document)
	meta := map[string]string{"score": fmt.Sprintf("%.3f", score)}

	if score > impact.ReviewThreshold {
		return state.Decision{
			Action:     state.ActionFlagForReview,
			Reasoning:  fmt.Sprintf("impact score %.2f exceeds review threshold %.2f, flagging for human review", score, impact.ReviewThreshold),
			Confidence: 0.9,
			Metadata:   meta,
		}
	}
	return state.Decision{
		Action:     state.ActionAutoApply,
		Reasoning:  fmt.Sprintf("impact score %.2f is within review threshold %.2f, safe to apply automatically", score, impact.ReviewThreshold),
		Confidence: 0.9,
		Metadata:   meta,
	}
}

// execute maps the decision's action to exactly one collaborator path. Any
// collaborator error, including a panic, becomes a failed ExecutionResult
// and never propagates out.
func (e *Engine) execute(ctx context.Context, task *Task, dec state.Decision) (res state.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("collaborator panicked during execute", "task", task.ID, "action", dec.Action, "panic", fmt.Sprint(r))
			res = state.ExecutionResult{Success: false, Error: fmt.Sprintf("collaborator panic: %v", r)}
		}
	}()

	switch dec.Action {
	case state.ActionRulesOnly:
		p, ok := task.Payload.(UpdatePayload)
		if !ok {
			return mismatch(dec.Action)
		}
		return e.applyPatch(ctx, p.Document, p.Changes, false)

	case state.ActionGenerativeProposal:
		p, ok := task.Payload.(UpdatePayload)
		if !ok {
			return mismatch(dec.Action)
		}
		return e.applyPatch(ctx, p.Document, p.Changes, true)

	case state.ActionAutoApply:
		// Auto-apply deliberately routes through the same patch-production
		// path as generative proposals.
		p, ok := task.Payload.(AnalyzePayload)
		if !ok {
			return mismatch(dec.Action)
		}
		res := e.applyPatch(ctx, p.Document, p.Changes, true)
		if res.Success {
			res.Impact = &state.ImpactReport{
				Score:          impact.Score(p.Changes, p.Document),
				RequiresReview: false,
				Recommendation: "applied automatically",
			}
		}
		return res

	case state.ActionFlagForReview:
		p, ok := task.Payload.(AnalyzePayload)
		if !ok {
			return mismatch(dec.Action)
		}
		return state.ExecutionResult{
			Success: true,
			Changes: p.Changes,
			Impact: &state.ImpactReport{
				Score:          impact.Score(p.Changes, p.Document),
				RequiresReview: true,
				Recommendation: "manual review required before applying",
			},
		}

	case state.ActionCheckChanges:
		if e.changes == nil {
			return state.ExecutionResult{
				Success: true,
				Notes:   []string{"no change source configured, no changes detected"},
			}
		}
		detected, err := e.changes.Load(dec.Metadata["source"])
		if err != nil {
			return state.ExecutionResult{Success: false, Error: fmt.Sprintf("load change source: %v", err)}
		}
		return state.ExecutionResult{Success: true, Changes: detected}

	case state.ActionSkip:
		return state.ExecutionResult{Success: true, Notes: []string{dec.Reasoning}}

	default:
		return state.ExecutionResult{Success: false, Error: fmt.Sprintf("no executor for action %q", dec.Action)}
	}
}

// applyPatch runs the deterministic rules, optionally the generative
// proposer on the rules' output, then validates the final text.
func (e *Engine) applyPatch(ctx context.Context, document string, changes []change.Descriptor, generative bool) state.ExecutionResult {
	results, err := e.rules.Apply(document, changes)
	if err != nil {
		return state.ExecutionResult{Success: false, Error: fmt.Sprintf("apply rules: %v", err)}
	}

	text := document
	var notes []string
	for _, r := range results {
		notes = append(notes, r.Notes...)
		if r.Text != "" {
			text = r.Text
		}
	}

	if generative {
		prop, err := e.proposer.Propose(ctx, text, changes)
		if err != nil {
			return state.ExecutionResult{Success: false, Error: fmt.Sprintf("generate proposal: %v", err)}
		}
		if prop != nil {
			notes = append(notes, prop.Notes...)
			if prop.Text != "" {
				text = prop.Text
			}
		}
	}

	if err := e.validator.Validate(text); err != nil {
		return state.ExecutionResult{Success: false, Error: fmt.Sprintf("validate document: %v", err)}
	}

	return state.ExecutionResult{Success: true, Document: text, Notes: notes}
}

func mismatch(action string) state.ExecutionResult {
	return state.ExecutionResult{
		Success: false,
		Error:   fmt.Sprintf("decision action %q does not match task payload", action),
	}
}
