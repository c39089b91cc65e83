package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/pipewright/pipewright/internal/engine"
)

// QueueStatus describes the run-loop queue.
type QueueStatus struct {
	Pending int      `json:"pending"`
	Running bool     `json:"running"`
	TaskIDs []string `json:"task_ids"`
}

// AddTask constructs a task from the payload and inserts it into the queue
// in priority order: higher priority values are dequeued first, ties keep
// insertion order. It returns the new task's id.
func (o *Orchestrator) AddTask(payload engine.Payload, priority int) string {
	task := engine.NewTask(newTaskID(), payload, priority)

	o.mu.Lock()
	defer o.mu.Unlock()

	idx := len(o.queue)
	for i, queued := range o.queue {
		if task.Priority > queued.Priority {
			idx = i
			break
		}
	}
	o.queue = append(o.queue, nil)
	copy(o.queue[idx+1:], o.queue[idx:])
	o.queue[idx] = task

	return task.ID
}

// QueueStatus returns the current queue contents and run-loop state.
func (o *Orchestrator) QueueStatus() QueueStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	ids := make([]string, len(o.queue))
	for i, t := range o.queue {
		ids[i] = t.ID
	}
	return QueueStatus{Pending: len(o.queue), Running: o.running, TaskIDs: ids}
}

// Start launches the queue-draining run loop. It returns an error if the
// loop is already running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return errors.New("orchestrator already running")
	}
	o.running = true
	o.stopCh = make(chan struct{})
	o.doneCh = make(chan struct{})

	go o.drain(ctx, o.stopCh, o.doneCh)
	return nil
}

// Stop signals the run loop to finish and waits for it to exit. Stopping a
// non-running orchestrator is a no-op.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	stopCh, doneCh := o.stopCh, o.doneCh
	o.mu.Unlock()

	close(stopCh)
	<-doneCh

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// drain processes queued tasks one at a time, sleeping between empty-queue
// checks. Failed tasks are re-enqueued at the tail with an incremented
// retry count up to the configured cap, then dropped.
func (o *Orchestrator) drain(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	interval := time.Duration(o.cfg.Limits.PollIntervalMS) * time.Millisecond

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		task := o.pop()
		if task == nil {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			continue
		}

		if err := o.executeTask(ctx, task); err != nil {
			if task.RetryCount < o.cfg.Limits.MaxRetries {
				task.RetryCount++
				o.log.Warn("task failed, re-enqueueing",
					"task", task.ID, "retry", task.RetryCount, "error", err)
				o.mu.Lock()
				o.queue = append(o.queue, task)
				o.mu.Unlock()
			} else {
				o.log.Error("task dropped after exhausting retries",
					"task", task.ID, "retries", task.RetryCount, "error", err)
			}
		}
	}
}

// pop removes and returns the head of the queue, or nil when empty.
func (o *Orchestrator) pop() *engine.Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.queue) == 0 {
		return nil
	}
	task := o.queue[0]
	o.queue = o.queue[1:]
	return task
}

// executeTask runs one task and reports an unsuccessful last record as an
// error so the drain loop can apply retry handling.
func (o *Orchestrator) executeTask(ctx context.Context, task *engine.Task) error {
	rec, err := o.runTask(ctx, task)
	if err != nil {
		return err
	}
	if rec != nil && !rec.Success {
		if rec.Result.Error != "" {
			return errors.New(rec.Result.Error)
		}
		return errors.New("task execution failed")
	}
	return nil
}
