package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunInfo identifies a run when it starts.
type RunInfo struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Trigger string    `json:"trigger"`
	Started time.Time `json:"started"`
}

// Observer follows the runs of a Runner.
type Observer interface {
	RunStarted(info RunInfo)
	RunEvent(ev Event)
	RunFinished(out Outcome)
}

// Runner lets one run execute at a time across every trigger.
type Runner struct {
	pipeline  *Pipeline
	observers []Observer

	mu     sync.Mutex
	active string
	cancel context.CancelFunc
}

// NewRunner wraps p. The observers are fixed for the life of the runner.
func NewRunner(p *Pipeline, observers ...Observer) *Runner {
	return &Runner{pipeline: p, observers: observers}
}

// Pipeline returns the wrapped pipeline.
func (r *Runner) Pipeline() *Pipeline { return r.pipeline }

// Active returns the ID of the run in progress.
func (r *Runner) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}

// Cancel stops the run with the given ID. It reports false when that run is
// not the active one.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == "" || r.active != id || r.cancel == nil {
		return false
	}
	r.cancel()
	return true
}

// Run executes req synchronously.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	runCtx, req, err := r.acquire(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return r.execute(runCtx, req), nil
}

// Start executes req in the background and returns its run ID.
// done, when set, is called with the outcome.
func (r *Runner) Start(ctx context.Context, req Request, done func(Outcome)) (string, error) {
	runCtx, req, err := r.acquire(ctx, req)
	if err != nil {
		return "", err
	}
	go func() {
		out := r.execute(runCtx, req)
		if done != nil {
			done(out)
		}
	}()
	return req.RunID, nil
}

func (r *Runner) acquire(ctx context.Context, req Request) (context.Context, Request, error) {
	r.mu.Lock()
	if r.active != "" {
		r.mu.Unlock()
		return nil, req, ErrRunInProgress
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.active = req.RunID
	r.cancel = cancel
	r.mu.Unlock()

	info := RunInfo{ID: req.RunID, Date: req.Date, Trigger: req.Trigger, Started: r.pipeline.now()}
	for _, o := range r.observers {
		o.RunStarted(info)
	}
	return runCtx, req, nil
}

func (r *Runner) execute(ctx context.Context, req Request) Outcome {
	sink := req.Sink
	req.Sink = func(ev Event) {
		for _, o := range r.observers {
			o.RunEvent(ev)
		}
		if sink != nil {
			sink(ev)
		}
	}
	out := r.pipeline.Run(ctx, req)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.active, r.cancel = "", nil
	r.mu.Unlock()

	for _, o := range r.observers {
		o.RunFinished(out)
	}
	return out
}
