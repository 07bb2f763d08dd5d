// Package clock supplies the time source every write is stamped with.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// System reads the wall clock in UTC.
var System = Func(func() time.Time { return time.Now().UTC() })

// Monotonic wraps a source so successive calls return strictly increasing
// millisecond values, even when the source stalls or steps backwards.
// Two writes never share an updatedAt, which keeps changedSince exact.
type Monotonic struct {
	mu     sync.Mutex
	source Clock
	last   int64
}

func NewMonotonic(source Clock) *Monotonic {
	if source == nil {
		source = System
	}
	return &Monotonic{source: source}
}

func (m *Monotonic) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms := m.source.Now().UnixMilli()
	if ms <= m.last {
		ms = m.last + 1
	}
	m.last = ms
	return time.UnixMilli(ms).UTC()
}

// Manual is a settable clock for tests. It only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
