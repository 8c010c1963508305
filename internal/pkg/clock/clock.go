package clock

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock reads so the time-budgeted passes can be unit
// tested with a controllable clock instead of sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the real clock.
func System() Clock { return systemClock{} }

// Manual is a hand-advanced clock for tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Budget tracks elapsed wall-clock time against a hard limit. Long passes
// poll Exceeded at bounded intervals and voluntarily stop instead of letting
// the hosting environment terminate them.
type Budget struct {
	clock   Clock
	started time.Time
	limit   time.Duration
}

func NewBudget(c Clock, limit time.Duration) *Budget {
	return &Budget{clock: c, started: c.Now(), limit: limit}
}

func (b *Budget) Elapsed() time.Duration {
	return b.clock.Now().Sub(b.started)
}

func (b *Budget) Exceeded() bool {
	return b.Elapsed() >= b.limit
}

// FractionUsed reports elapsed time as a fraction of the limit.
func (b *Budget) FractionUsed() float64 {
	if b.limit <= 0 {
		return 1
	}
	return float64(b.Elapsed()) / float64(b.limit)
}

func (b *Budget) Limit() time.Duration { return b.limit }
