//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// -----------------------------
// Catalog
// -----------------------------

type MockCatalog struct {
	Plans          []*model.SubscriptionPlan
	Movies         []*model.Movie
	ListPlansFunc  func(ctx context.Context) ([]*model.SubscriptionPlan, error)
	ListMoviesFunc func(ctx context.Context) ([]*model.Movie, error)
}

func (m *MockCatalog) ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	if m.ListPlansFunc != nil {
		return m.ListPlansFunc(ctx)
	}
	return m.Plans, nil
}

func (m *MockCatalog) ListMovies(ctx context.Context) ([]*model.Movie, error) {
	if m.ListMoviesFunc != nil {
		return m.ListMoviesFunc(ctx)
	}
	return m.Movies, nil
}

func (m *MockCatalog) MediaURL(locator string) string { return "https://media.test" + locator }

// -----------------------------
// Payment gateway
// -----------------------------

type initiateCall struct {
	Phone  string
	Amount decimal.Decimal
	PlanID int
}

type MockPaymentGateway struct {
	mu            sync.Mutex
	InitiateFunc  func(ctx context.Context, phone string, amount decimal.Decimal, planID int) (string, error)
	CheckFunc     func(ctx context.Context, checkoutRequestID string) (*model.STKStatus, error)
	InitiateCalls []initiateCall
	CheckCalls    int
}

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal, planID int) (string, error) {
	m.mu.Lock()
	m.InitiateCalls = append(m.InitiateCalls, initiateCall{Phone: phone, Amount: amount, PlanID: planID})
	m.mu.Unlock()
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, phone, amount, planID)
	}
	return "ws_CO_test", nil
}

func (m *MockPaymentGateway) CheckSTKStatus(ctx context.Context, checkoutRequestID string) (*model.STKStatus, error) {
	m.mu.Lock()
	m.CheckCalls++
	m.mu.Unlock()
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, checkoutRequestID)
	}
	return &model.STKStatus{Success: true, ResultCode: model.ResultCodePending}, nil
}

func (m *MockPaymentGateway) Checks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CheckCalls
}

// codes answers successive polls with the given result codes; the last one repeats.
func codes(cs ...string) func(ctx context.Context, id string) (*model.STKStatus, error) {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, id string) (*model.STKStatus, error) {
		mu.Lock()
		defer mu.Unlock()
		c := cs[len(cs)-1]
		if i < len(cs) {
			c = cs[i]
		}
		i++
		return &model.STKStatus{Success: true, ResultCode: c, ResultDesc: "desc " + c}, nil
	}
}

// -----------------------------
// Notifier / Navigator
// -----------------------------

type note struct {
	Level string
	Msg   string
}

type RecordingNotifier struct {
	mu    sync.Mutex
	Notes []note
}

func (n *RecordingNotifier) add(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notes = append(n.Notes, note{Level: level, Msg: msg})
}

func (n *RecordingNotifier) Info(ctx context.Context, msg string)    { n.add("info", msg) }
func (n *RecordingNotifier) Success(ctx context.Context, msg string) { n.add("success", msg) }
func (n *RecordingNotifier) Error(ctx context.Context, msg string)   { n.add("error", msg) }

func (n *RecordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, x := range n.Notes {
		if x.Level == "error" {
			out = append(out, x.Msg)
		}
	}
	return out
}

type RecordingNavigator struct {
	mu    sync.Mutex
	Paths []string
	Backs int
}

func (n *RecordingNavigator) Navigate(ctx context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Paths = append(n.Paths, path)
}

func (n *RecordingNavigator) Back(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Backs++
}

// -----------------------------
// Rate limiter
// -----------------------------

type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string) (bool, error)
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return m.AllowFunc(ctx, key)
}

// -----------------------------
// Media resource / fullscreen host
// -----------------------------

var _ adapter.MediaResource = (*FakeMedia)(nil)

// FakeMedia behaves like a video element: Play and Pause emit their events
// synchronously, metadata arrives only when the test calls LoadMetadata.
type FakeMedia struct {
	mu        sync.Mutex
	src       string
	paused    bool
	current   float64
	duration  float64
	volume    float64
	subs      map[int]func(adapter.MediaEvent)
	nextSub   int
	OpenErr   error
	OnOpen    func(f *FakeMedia) // runs inside Open, e.g. for cached sources
	PlayErr   error
	Seeks     []float64
	PlayCalls int
	Closed    bool
}

func NewFakeMedia() *FakeMedia {
	return &FakeMedia{paused: true, duration: math.NaN(), volume: 1, subs: map[int]func(adapter.MediaEvent){}}
}

func (f *FakeMedia) Open(ctx context.Context, src string) error {
	f.mu.Lock()
	if f.OpenErr != nil {
		f.mu.Unlock()
		return f.OpenErr
	}
	f.src = src
	hook := f.OnOpen
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	return nil
}

func (f *FakeMedia) Play(ctx context.Context) error {
	f.mu.Lock()
	f.PlayCalls++
	if f.PlayErr != nil {
		f.mu.Unlock()
		return f.PlayErr
	}
	f.paused = false
	f.mu.Unlock()
	f.Emit(adapter.MediaPlay)
	return nil
}

func (f *FakeMedia) Pause() {
	f.mu.Lock()
	f.paused = true
	f.mu.Unlock()
	f.Emit(adapter.MediaPause)
}

func (f *FakeMedia) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *FakeMedia) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeMedia) SetCurrentTime(s float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = s
	f.Seeks = append(f.Seeks, s)
}

func (f *FakeMedia) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *FakeMedia) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *FakeMedia) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *FakeMedia) Subscribe(fn func(adapter.MediaEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *FakeMedia) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Emit delivers ev to every subscriber on the caller's goroutine.
func (f *FakeMedia) Emit(ev adapter.MediaEvent) {
	f.mu.Lock()
	fns := make([]func(adapter.MediaEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// LoadMetadata sets the duration and fires loadedmetadata.
func (f *FakeMedia) LoadMetadata(duration float64) {
	f.mu.Lock()
	f.duration = duration
	f.mu.Unlock()
	f.Emit(adapter.MediaLoadedMetadata)
}

// SetPosition moves the playhead without recording a seek (natural playback).
func (f *FakeMedia) SetPosition(s float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = s
}

func (f *FakeMedia) SeekCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Seeks)
}

func (f *FakeMedia) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type FakeFullscreen struct {
	mu         sync.Mutex
	fullscreen bool
	RequestErr error
	fns        map[int]func(bool)
	next       int
}

func NewFakeFullscreen() *FakeFullscreen { return &FakeFullscreen{fns: map[int]func(bool){}} }

func (h *FakeFullscreen) IsFullscreen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fullscreen
}

func (h *FakeFullscreen) RequestFullscreen(ctx context.Context) error {
	if h.RequestErr != nil {
		return h.RequestErr
	}
	h.change(true)
	return nil
}

func (h *FakeFullscreen) ExitFullscreen(ctx context.Context) error {
	h.change(false)
	return nil
}

func (h *FakeFullscreen) OnChange(fn func(bool)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.fns[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.fns, id)
	}
}

func (h *FakeFullscreen) change(v bool) {
	h.mu.Lock()
	h.fullscreen = v
	fns := make([]func(bool), 0, len(h.fns))
	for _, fn := range h.fns {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}
