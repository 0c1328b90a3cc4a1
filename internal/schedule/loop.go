package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopStopped is returned when work is submitted to a loop that has exited.
var ErrLoopStopped = errors.New("control loop stopped")

// Loop is a Scheduler backed by one goroutine that executes every callback
// in submission order.
type Loop struct {
	events  chan func()
	done    chan struct{}
	stopped sync.Once
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop() *Loop {
	return &Loop{
		events: make(chan func(), 64),
		done:   make(chan struct{}),
	}
}

// Run executes submitted callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopped.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.events:
			fn()
		}
	}
}

// Post queues fn for execution. It reports false if the loop has exited.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for its result. It must not be called
// from a callback already running on the loop.
func (l *Loop) Call(fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return ErrLoopStopped
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrLoopStopped
	}
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Task {
	t := &loopTask{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.cancelled.Load() {
				return
			}
			fn()
		})
	})
	return t
}

// Every runs fn on the loop every d. Ticks that arrive while the previous
// tick is still queued are dropped.
func (l *Loop) Every(d time.Duration, fn func()) Task {
	t := &loopTask{stop: make(chan struct{})}
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		var pending atomic.Bool

		for {
			select {
			case <-t.stop:
				return
			case <-l.done:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				l.Post(func() {
					pending.Store(false)
					if t.cancelled.Load() {
						return
					}
					fn()
				})
			}
		}
	}()

	return t
}

type loopTask struct {
	timer     *time.Timer
	stop      chan struct{}
	cancelled atomic.Bool
	once      sync.Once
}

func (t *loopTask) Cancel() {
	t.cancelled.Store(true)
	t.once.Do(func() {
		if t.timer != nil {
			t.timer.Stop()
		}
		if t.stop != nil {
			close(t.stop)
		}
	})
}
