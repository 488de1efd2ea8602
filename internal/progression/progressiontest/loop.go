// Package progressiontest provides a deterministic event loop for driving a
// progression.Machine in tests.
package progressiontest

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dandrade264/QueryCombat-Boardgame/internal/progression"
)

// deliveryTimeout bounds how long Advance waits for a due timer to report.
const deliveryTimeout = 5 * time.Second

// Loop is a progression.Scheduler backed by a clockwork fake clock. Timers
// fire on clock goroutines and hand their callbacks to the loop; Advance
// runs them on the calling goroutine, the way the game runs them on the
// event-loop goroutine.
type Loop struct {
	t     testing.TB
	clock *clockwork.FakeClock
	ready chan *timer
	armed []*timer
}

type timer struct {
	loop  *Loop
	due   time.Time
	fn    func()
	inner clockwork.Timer
}

// NewLoop creates a loop whose clock starts at the fake clock's epoch.
func NewLoop(t testing.TB) *Loop {
	return &Loop{
		t:     t,
		clock: clockwork.NewFakeClock(),
		ready: make(chan *timer, 64),
	}
}

// Clock returns the underlying fake clock.
func (l *Loop) Clock() *clockwork.FakeClock {
	return l.clock
}

// AfterFunc schedules fn to run on the loop once d has elapsed on the clock.
func (l *Loop) AfterFunc(d time.Duration, fn func()) progression.Timer {
	tm := &timer{loop: l, due: l.clock.Now().Add(d), fn: fn}
	l.armed = append(l.armed, tm)
	tm.inner = l.clock.AfterFunc(d, func() { l.ready <- tm })
	return tm
}

// Advance moves the clock forward by d and runs every callback that came
// due, in the order their timers fired.
func (l *Loop) Advance(d time.Duration) {
	l.t.Helper()
	l.clock.Advance(d)
	now := l.clock.Now()

	for l.countDue(now) > 0 {
		select {
		case tm := <-l.ready:
			l.forget(tm)
			tm.fn()
		case <-time.After(deliveryTimeout):
			l.t.Fatalf("timer due at %v never fired", now)
			return
		}
	}
}

// Pending returns the number of callbacks that have neither run nor been
// stopped.
func (l *Loop) Pending() int {
	return len(l.armed)
}

func (l *Loop) countDue(now time.Time) int {
	n := 0
	for _, tm := range l.armed {
		if !tm.due.After(now) {
			n++
		}
	}
	return n
}

func (l *Loop) forget(tm *timer) {
	for i, a := range l.armed {
		if a == tm {
			l.armed = append(l.armed[:i], l.armed[i+1:]...)
			return
		}
	}
}

// Stop cancels the timer. A timer that already fired still delivers its
// callback on the next Advance, like a real timer whose callback is already
// queued on the event loop.
func (tm *timer) Stop() bool {
	if !tm.inner.Stop() {
		return false
	}
	tm.loop.forget(tm)
	return true
}
