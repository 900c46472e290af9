package sched

import (
	"sort"
	"sync"
	"time"

	"flixgo-client/internal/domain/ports/adapter"
)

var _ adapter.Scheduler = (*ManualScheduler)(nil)

// ManualScheduler is a deterministic scheduler for tests and simulations.
// Time only moves on Advance, and due callbacks run on the caller's goroutine
// in due order (ties in scheduling order).
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   int64
	tasks []*manualTask
}

type manualTask struct {
	s         *ManualScheduler
	due       time.Time
	seq       int64
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.cancelled = true
}

func NewManualScheduler(start time.Time) *ManualScheduler {
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	return &ManualScheduler{now: start}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) adapter.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTask{s: s, due: s.now.Add(d), seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves time forward by d, running every callback that falls due,
// including callbacks scheduled by callbacks within the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		t := s.popDue(target)
		if t == nil {
			break
		}
		t.fn()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// Pending returns the number of scheduled, not cancelled callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) popDue(target time.Time) *manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	s.tasks = live
	if len(s.tasks) == 0 {
		return nil
	}
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].due.Equal(s.tasks[j].due) {
			return s.tasks[i].seq < s.tasks[j].seq
		}
		return s.tasks[i].due.Before(s.tasks[j].due)
	})
	next := s.tasks[0]
	if next.due.After(target) {
		return nil
	}
	s.tasks = s.tasks[1:]
	s.now = next.due
	return next
}
