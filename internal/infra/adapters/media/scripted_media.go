package media

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"flixgo-client/internal/domain/ports/adapter"
)

var _ adapter.MediaResource = (*ScriptedMedia)(nil)

var (
	ErrNoSource = errors.New("media: no source")
	ErrClosed   = errors.New("media: resource closed")
)

type ScriptedOptions struct {
	Duration float64       // simulated length in seconds
	Tick     time.Duration // interval between playhead updates, default 250ms
	Speed    float64       // media seconds per elapsed second, default 1
}

// ScriptedMedia is a headless player with a simulated playhead. Metadata
// arrives on the scheduler right after Open; while playing the playhead
// moves every Tick and the resource ends at Duration. Events are delivered
// on the scheduler's goroutine, or the caller's for Play, Pause and seeks.
type ScriptedMedia struct {
	sched adapter.Scheduler
	opts  ScriptedOptions

	mu      sync.Mutex
	src     string
	loaded  bool
	paused  bool
	current float64
	volume  float64
	closed  bool
	metaH   adapter.Handle
	tickH   adapter.Handle
	subs    map[int]func(adapter.MediaEvent)
	nextSub int
}

func NewScriptedMedia(s adapter.Scheduler, opts ScriptedOptions) *ScriptedMedia {
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	return &ScriptedMedia{
		sched:  s,
		opts:   opts,
		paused: true,
		volume: 1,
		subs:   make(map[int]func(adapter.MediaEvent)),
	}
}

func (m *ScriptedMedia) Open(ctx context.Context, src string) error {
	if src == "" {
		return ErrNoSource
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.stopLocked()
	m.src = src
	m.loaded = false
	m.paused = true
	m.current = 0
	m.metaH = m.sched.AfterFunc(0, m.loadMetadata)
	return nil
}

func (m *ScriptedMedia) loadMetadata() {
	m.mu.Lock()
	if m.closed || m.metaH == nil {
		m.mu.Unlock()
		return
	}
	m.metaH = nil
	m.loaded = true
	m.mu.Unlock()
	m.emit(adapter.MediaLoadedMetadata)
}

// Play starts the playhead; after the end it restarts from zero.
func (m *ScriptedMedia) Play(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return ErrClosed
	case m.src == "":
		m.mu.Unlock()
		return ErrNoSource
	case !m.paused:
		m.mu.Unlock()
		return nil
	}
	if m.loaded && m.current >= m.opts.Duration {
		m.current = 0
	}
	m.paused = false
	m.tickH = m.sched.AfterFunc(m.opts.Tick, m.advance)
	m.mu.Unlock()
	m.emit(adapter.MediaPlay)
	return nil
}

func (m *ScriptedMedia) Pause() {
	m.mu.Lock()
	if m.paused || m.closed {
		m.mu.Unlock()
		return
	}
	m.paused = true
	if m.tickH != nil {
		m.tickH.Cancel()
		m.tickH = nil
	}
	m.mu.Unlock()
	m.emit(adapter.MediaPause)
}

func (m *ScriptedMedia) advance() {
	m.mu.Lock()
	if m.paused || m.closed {
		m.mu.Unlock()
		return
	}
	m.tickH = nil
	if m.loaded {
		m.current += m.opts.Tick.Seconds() * m.opts.Speed
	}
	ended := m.loaded && m.current >= m.opts.Duration
	if ended {
		m.current = m.opts.Duration
		m.paused = true
	} else {
		m.tickH = m.sched.AfterFunc(m.opts.Tick, m.advance)
	}
	m.mu.Unlock()

	m.emit(adapter.MediaTimeUpdate)
	if ended {
		m.emit(adapter.MediaEnded)
	}
}

func (m *ScriptedMedia) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *ScriptedMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *ScriptedMedia) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	if m.closed || math.IsNaN(seconds) {
		m.mu.Unlock()
		return
	}
	m.current = math.Max(0, seconds)
	if m.loaded {
		m.current = math.Min(m.current, m.opts.Duration)
	}
	m.mu.Unlock()
	m.emit(adapter.MediaTimeUpdate)
}

// Duration is NaN until metadata has loaded.
func (m *ScriptedMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return math.NaN()
	}
	return m.opts.Duration
}

func (m *ScriptedMedia) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *ScriptedMedia) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = math.Max(0, math.Min(1, v))
}

func (m *ScriptedMedia) Subscribe(fn func(adapter.MediaEvent)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close stops the playhead. Further calls are no-ops.
func (m *ScriptedMedia) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.stopLocked()
	m.closed = true
	m.paused = true
	return nil
}

func (m *ScriptedMedia) stopLocked() {
	if m.metaH != nil {
		m.metaH.Cancel()
		m.metaH = nil
	}
	if m.tickH != nil {
		m.tickH.Cancel()
		m.tickH = nil
	}
}

func (m *ScriptedMedia) emit(ev adapter.MediaEvent) {
	m.mu.Lock()
	fns := make([]func(adapter.MediaEvent), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
