package progression

import "time"

// Timer is a pending deferred callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or was already stopped.
	Stop() bool
}

// Scheduler issues cancellable deferred callbacks.
//
// Callbacks must run on the goroutine that owns the Machine; a scheduler
// backed by real timers has to hand them back to that goroutine, and must
// not drop them.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}
