// Package timer measures wall-clock time for a sheet session. Elapsed time
// is always derived from start/stop instants, never from tick counts, so
// delayed or dropped display refreshes cannot skew it. time.Time carries a
// monotonic reading, which keeps the measurement immune to clock steps.
package timer

import "time"

// Timer tracks elapsed time between Start and Stop. The zero value is a
// timer that never ran and reports zero elapsed.
type Timer struct {
	startedAt time.Time
	running   bool
	final     time.Duration
}

// Start begins (or restarts) accrual from now.
func (t *Timer) Start() {
	t.startedAt = time.Now()
	t.running = true
	t.final = 0
}

// Stop ends accrual and returns the total elapsed time. Stopping a timer
// that never started returns zero; the state machine should not let that
// happen, but the timer stays defensive about it.
func (t *Timer) Stop() time.Duration {
	if t.running {
		t.final = time.Since(t.startedAt)
		t.running = false
	}
	return t.final
}

// Elapsed reports time accrued so far without stopping the timer.
func (t *Timer) Elapsed() time.Duration {
	if t.running {
		return time.Since(t.startedAt)
	}
	return t.final
}

// Reset returns the timer to its never-ran state.
func (t *Timer) Reset() {
	*t = Timer{}
}
