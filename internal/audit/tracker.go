package audit

import (
	"sync"
	"time"
)

// Tracker records when each open section started so its duration can be
// computed on completion. It is the only owner of the start-time table:
// construct one Tracker per process and inject it wherever orchestration
// happens rather than relying on ambient state.
//
// Entries for sections that are never completed stay until process exit.
// That is acceptable because only one run is in flight at a time.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	started map[int64]time.Time
}

// NewTracker creates an empty lifecycle tracker.
func NewTracker() *Tracker {
	return &Tracker{
		started: make(map[int64]time.Time),
	}
}

// Start records the current monotonic instant for a section.
func (t *Tracker) Start(sectionID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started[sectionID] = time.Now()
}

// Complete removes and returns the elapsed time since Start for a section.
// The second return value is false when the section was never started, in
// which case the duration is unknown rather than an error.
func (t *Tracker) Complete(sectionID int64) (time.Duration, bool) {
	t.mu.Lock()
	start, ok := t.started[sectionID]
	delete(t.started, sectionID)
	t.mu.Unlock()

	if !ok {
		return 0, false
	}
	// time.Since uses the monotonic clock reading carried by start, so the
	// result is never negative even across wall-clock adjustments.
	return time.Since(start), true
}

// Open returns the number of sections started but not yet completed.
func (t *Tracker) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.started)
}
