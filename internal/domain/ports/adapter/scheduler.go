package adapter

import "time"

// Handle is a scheduled callback. Cancel is idempotent and safe to call after
// the callback ran.
type Handle interface {
	Cancel()
}

// Scheduler runs callbacks after a delay. Implementations must not run a
// callback whose handle was cancelled before it fired.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Handle
}
