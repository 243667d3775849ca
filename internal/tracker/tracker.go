// Package tracker records the progress of a multi-step operation and renders
// it as a tree. It has no knowledge of what the steps do; callers register
// a refresh callback to redraw whenever a step changes.
package tracker

import (
	"sync"
)

// Status is the lifecycle state of a step.
type Status int

// Status values are ordered; renderers may rely on the order.
const (
	StatusPending Status = iota
	StatusRunning
	StatusDone
	StatusError
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Step is one line of the tracker.
type Step struct {
	Key    string
	Label  string
	Status Status
	Detail string
}

// Tracker is safe for concurrent use. The refresh callback runs outside the
// lock, so it may call Render.
type Tracker struct {
	mu      sync.Mutex
	title   string
	steps   []Step
	index   map[string]int
	refresh func()
}

// New creates an empty tracker.
func New(title string) *Tracker {
	return &Tracker{title: title, index: make(map[string]int)}
}

// Title returns the heading shown above the steps.
func (t *Tracker) Title() string { return t.title }

// AttachRefresh sets the callback invoked after every change. Panics raised
// by it are swallowed.
func (t *Tracker) AttachRefresh(fn func()) {
	t.mu.Lock()
	t.refresh = fn
	t.mu.Unlock()
}

// Add registers a pending step. Adding an existing key changes nothing.
func (t *Tracker) Add(key, label string) {
	t.mu.Lock()
	if _, ok := t.index[key]; ok {
		t.mu.Unlock()
		return
	}
	t.addLocked(key, label)
	fn := t.refresh
	t.mu.Unlock()
	fire(fn)
}

// Start marks a step running.
func (t *Tracker) Start(key, detail string) { t.update(key, StatusRunning, detail) }

// Complete marks a step done.
func (t *Tracker) Complete(key, detail string) { t.update(key, StatusDone, detail) }

// Error marks a step failed.
func (t *Tracker) Error(key, detail string) { t.update(key, StatusError, detail) }

// Skip marks a step skipped.
func (t *Tracker) Skip(key, detail string) { t.update(key, StatusSkipped, detail) }

// update transitions key, creating it with its key as label when unknown.
func (t *Tracker) update(key string, status Status, detail string) {
	t.mu.Lock()
	i, ok := t.index[key]
	if !ok {
		i = t.addLocked(key, key)
	}
	t.steps[i].Status = status
	t.steps[i].Detail = detail
	fn := t.refresh
	t.mu.Unlock()
	fire(fn)
}

func (t *Tracker) addLocked(key, label string) int {
	t.steps = append(t.steps, Step{Key: key, Label: label, Status: StatusPending})
	t.index[key] = len(t.steps) - 1
	return len(t.steps) - 1
}

// Steps returns a snapshot of all steps in insertion order.
func (t *Tracker) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Get returns the step with the given key.
func (t *Tracker) Get(key string) (Step, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[key]
	if !ok {
		return Step{}, false
	}
	return t.steps[i], true
}

func fire(fn func()) {
	if fn == nil {
		return
	}
	defer func() { _ = recover() }()
	fn()
}
