package resource

import (
	"sort"
	"sync"
	"time"

	"ControlPagos/internal/config"
	"ControlPagos/internal/logger"
	"ControlPagos/internal/pipeline"
	"ControlPagos/internal/serviceiface"
)

var _ serviceiface.Service = (*RunRegistry)(nil)

// RunView is a copy of a run's state that is safe to hand out.
type RunView struct {
	ID       string            `json:"id"`
	Date     time.Time         `json:"date"`
	Trigger  string            `json:"trigger"`
	Status   pipeline.Status   `json:"status"`
	Started  time.Time         `json:"started"`
	Finished *time.Time        `json:"finished,omitempty"`
	Events   []pipeline.Event  `json:"events,omitempty"`
	Outcome  *pipeline.Outcome `json:"outcome,omitempty"`
}

type runEntry struct {
	info    pipeline.RunInfo
	status  pipeline.Status
	events  []pipeline.Event
	outcome *pipeline.Outcome
	touched time.Time
}

// RunRegistry keeps the runs started since the process came up. Finished runs
// older than the retention are dropped by the heartbeat loop.
type RunRegistry struct {
	runs              map[string]*runEntry
	mu                sync.RWMutex
	stopChan          chan struct{}
	stopOnce          sync.Once
	heartbeatInterval time.Duration
	retention         time.Duration
	maxEvents         int
	now               func() time.Time
}

func NewRunRegistryService(cfg map[string]interface{}) *RunRegistry {
	return &RunRegistry{
		runs:              make(map[string]*runEntry),
		stopChan:          make(chan struct{}),
		heartbeatInterval: config.Duration(cfg, "heartbeat_interval", time.Minute),
		retention:         config.Duration(cfg, "retention", config.DefaultRunRetention),
		maxEvents:         config.Int(cfg, "max_events", 2000),
		now:               time.Now,
	}
}

func (rm *RunRegistry) Name() string { return "resourcemanager" }

func (rm *RunRegistry) Start() error {
	logger.Audit("RunRegistry started (retention %s)", rm.retention)
	go rm.heartbeatLoop()
	return nil
}

func (rm *RunRegistry) Stop() error {
	rm.stopOnce.Do(func() { close(rm.stopChan) })
	return nil
}

func (rm *RunRegistry) heartbeatLoop() {
	ticker := time.NewTicker(rm.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stopChan:
			return
		case <-ticker.C:
			if n := rm.Prune(); n > 0 {
				logger.Audit("RunRegistry pruned %d finished runs", n)
			}
		}
	}
}

func (rm *RunRegistry) RunStarted(info pipeline.RunInfo) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.runs[info.ID] = &runEntry{info: info, status: pipeline.StatusRunning, touched: rm.now()}
}

func (rm *RunRegistry) RunEvent(ev pipeline.Event) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	e, ok := rm.runs[ev.RunID]
	if !ok {
		return
	}
	if rm.maxEvents > 0 && len(e.events) >= rm.maxEvents {
		e.events = e.events[1:]
	}
	e.events = append(e.events, ev)
	e.touched = rm.now()
}

func (rm *RunRegistry) RunFinished(out pipeline.Outcome) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	e, ok := rm.runs[out.RunID]
	if !ok {
		e = &runEntry{info: pipeline.RunInfo{ID: out.RunID, Date: out.Date, Started: out.Started}}
		rm.runs[out.RunID] = e
	}
	o := out
	e.outcome = &o
	e.status = out.Status
	e.touched = rm.now()
}

// Get returns the run with its events and outcome.
func (rm *RunRegistry) Get(id string) (RunView, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	e, ok := rm.runs[id]
	if !ok {
		return RunView{}, false
	}
	v := e.view()
	v.Events = append([]pipeline.Event(nil), e.events...)
	return v, true
}

// EventsAfter returns the events of run id with Seq greater than seq, and
// whether the run has finished.
func (rm *RunRegistry) EventsAfter(id string, seq int) ([]pipeline.Event, bool, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	e, ok := rm.runs[id]
	if !ok {
		return nil, false, false
	}
	var out []pipeline.Event
	for _, ev := range e.events {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out, e.outcome != nil, true
}

// List returns every known run, newest first, without events.
func (rm *RunRegistry) List() []RunView {
	rm.mu.RLock()
	views := make([]RunView, 0, len(rm.runs))
	for _, e := range rm.runs {
		views = append(views, e.view())
	}
	rm.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool { return views[i].Started.After(views[j].Started) })
	return views
}

// Prune drops finished runs not touched within the retention.
func (rm *RunRegistry) Prune() int {
	if rm.retention <= 0 {
		return 0
	}
	cutoff := rm.now().Add(-rm.retention)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	n := 0
	for id, e := range rm.runs {
		if e.outcome != nil && e.touched.Before(cutoff) {
			delete(rm.runs, id)
			n++
		}
	}
	return n
}

func (e *runEntry) view() RunView {
	v := RunView{
		ID:      e.info.ID,
		Date:    e.info.Date,
		Trigger: e.info.Trigger,
		Status:  e.status,
		Started: e.info.Started,
	}
	if e.outcome != nil {
		o := *e.outcome
		v.Outcome = &o
		finished := o.Finished
		v.Finished = &finished
	}
	return v
}
