// Package schedule runs deferred and repeating work on a single control
// thread. Every scheduling call returns a Task handle that can be cancelled;
// a cancelled task never runs its callback afterwards, provided Cancel is
// called from the control thread itself.
package schedule

import "time"

// Task is a handle to scheduled work.
type Task interface {
	// Cancel prevents any further runs. Calling it more than once is safe.
	Cancel()
}

// Scheduler schedules callbacks on the control thread.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Task

	// Every runs fn every d until the task is cancelled.
	Every(d time.Duration, fn func()) Task
}

// Cancel cancels t if it is not nil. It lets callers keep a single Task
// slot and clear it unconditionally.
func Cancel(t Task) {
	if t != nil {
		t.Cancel()
	}
}
