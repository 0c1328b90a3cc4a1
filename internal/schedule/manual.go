package schedule

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by an explicit clock. Callbacks only run
// inside Advance, on the caller's goroutine, which makes timing fully
// deterministic in tests and simulations.
type Manual struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of scheduled tasks that have not been cancelled.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// AfterFunc schedules fn to run once d from now.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Task {
	return m.add(d, 0, fn)
}

// Every schedules fn to run every d from now.
func (m *Manual) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) *manualTask {
	m.seq++
	t := &manualTask{due: m.now + d, period: period, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every task that falls due
// in time order. Tasks scheduled by running callbacks are honoured if they
// fall due within the window.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for {
		t := m.next(end)
		if t == nil {
			break
		}
		m.now = t.due
		if t.period > 0 {
			t.due += t.period
		} else {
			t.cancelled = true
		}
		t.fn()
	}
	m.now = end
	m.compact()
}

func (m *Manual) next(end time.Duration) *manualTask {
	m.compact()
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due == m.tasks[j].due {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].due < m.tasks[j].due
	})
	if len(m.tasks) == 0 || m.tasks[0].due > end {
		return nil
	}
	return m.tasks[0]
}

func (m *Manual) compact() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.tasks = live
}

type manualTask struct {
	due       time.Duration
	period    time.Duration
	seq       int
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel() {
	t.cancelled = true
}
