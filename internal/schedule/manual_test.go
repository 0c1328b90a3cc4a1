package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualAfterFunc(t *testing.T) {
	m := NewManual()
	fired := 0
	m.AfterFunc(100*time.Millisecond, func() { fired++ })

	m.Advance(99 * time.Millisecond)
	assert.Equal(t, 0, fired)

	m.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)

	m.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManualEvery(t *testing.T) {
	m := NewManual()
	var at []time.Duration
	task := m.Every(100*time.Millisecond, func() { at = append(at, m.Now()) })

	m.Advance(350 * time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, at)

	task.Cancel()
	m.Advance(time.Second)
	assert.Len(t, at, 3)
}

func TestManualCancelFromCallback(t *testing.T) {
	m := NewManual()
	fired := 0
	var later Task
	m.AfterFunc(10*time.Millisecond, func() { later.Cancel() })
	later = m.AfterFunc(20*time.Millisecond, func() { fired++ })

	m.Advance(time.Second)

	assert.Equal(t, 0, fired)
}

func TestManualRunsNestedSchedules(t *testing.T) {
	m := NewManual()
	var order []string
	m.AfterFunc(10*time.Millisecond, func() {
		order = append(order, "a")
		m.AfterFunc(5*time.Millisecond, func() { order = append(order, "c") })
	})
	m.AfterFunc(12*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(20 * time.Millisecond)

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestCancelNil(t *testing.T) {
	assert.NotPanics(t, func() { Cancel(nil) })
}
