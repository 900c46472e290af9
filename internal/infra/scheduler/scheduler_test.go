//go:build !integration

package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestScheduler_RunsImmediatelyAndPeriodically(t *testing.T) {
	// Arrange
	job := &countingRefresher{}
	s := NewScheduler(5*time.Millisecond, job, newTestLogger())

	// Act
	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for job.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()

	// Assert
	if got := job.calls.Load(); got < 3 {
		t.Fatalf("refresh ran %d times, want >= 3", got)
	}
	after := job.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if job.calls.Load() != after {
		t.Fatal("refresh kept running after Stop")
	}
}

func TestScheduler_ErrorsDoNotStopLoop(t *testing.T) {
	job := &countingRefresher{err: errors.New("backend down")}
	s := NewScheduler(5*time.Millisecond, job, newTestLogger())

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for job.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	s.Stop()

	if job.calls.Load() < 2 {
		t.Fatalf("loop stopped after error: %d calls", job.calls.Load())
	}
}
