package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Refresher is anything that can reload a cache. It returns how many entries
// were refreshed and the first error, if any.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Scheduler periodically runs a Refresher.
type Scheduler struct {
	interval time.Duration
	job      Refresher
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler runs job.Refresh every interval (default one minute).
func NewScheduler(interval time.Duration, job Refresher, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		interval: interval,
		job:      job,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start runs one refresh right away, then loops in the background until Stop
// or parentCtx is done. Calling Start twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("started")
	s.runOnce()
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("context cancelled; stopping")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	runCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	n, err := s.job.Refresh(runCtx)
	if err != nil {
		s.log.Warn().Err(err).Int("refreshed", n).Msg("refresh failed")
		return
	}
	s.log.Debug().Int("refreshed", n).Msg("refresh done")
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
}
