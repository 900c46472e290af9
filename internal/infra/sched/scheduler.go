package sched

import (
	"sync"
	"time"

	"flixgo-client/internal/domain/ports/adapter"
)

var _ adapter.Scheduler = RealScheduler{}

// RealScheduler runs callbacks on the runtime timer wheel.
type RealScheduler struct{}

func (RealScheduler) Now() time.Time { return time.Now() }

func (RealScheduler) AfterFunc(d time.Duration, fn func()) adapter.Handle {
	return &timerHandle{t: time.AfterFunc(d, fn)}
}

type timerHandle struct {
	once sync.Once
	t    *time.Timer
}

func (h *timerHandle) Cancel() {
	h.once.Do(func() { h.t.Stop() })
}
