// Package clock provides the time source used for calendar-day decisions.
package clock

import (
	"sync"
	"time"
)

// DayLayout is the storage format of a calendar day.
const DayLayout = "2006-01-02"

// Clock returns the current time in the server's location.
type Clock interface {
	Now() time.Time
}

// Real reads the wall clock.
type Real struct {
	Location *time.Location
}

// New creates a Real clock for loc. A nil loc means time.Local.
func New(loc *time.Location) Real {
	if loc == nil {
		loc = time.Local
	}
	return Real{Location: loc}
}

func (c Real) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

// Day formats t as a calendar day in t's own location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// Stamp normalizes t for persistence: UTC, whole seconds.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Fake is a settable clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
