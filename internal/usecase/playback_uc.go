// File: internal/usecase/playback_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"flixgo-client/internal/config"
	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/domain/ports/repository"
	"flixgo-client/internal/infra/logging"
	"flixgo-client/internal/infra/metrics"
)

// User-facing playback alerts.
const (
	MsgMovieNotAvailable = "Movie not available"
	MsgVideoLoadFailed   = "Failed to load video"
)

type PlaybackOptions struct {
	ProgressInterval  time.Duration // default 5s
	ControlsHideAfter time.Duration // default 3s
	SkipStep          time.Duration // default 10s
	Autoplay          bool
}

// PlaybackOptionsFromConfig maps the playback config section. Autoplay
// defaults to on when the section leaves it unset.
func PlaybackOptionsFromConfig(c config.PlaybackConfig) PlaybackOptions {
	opts := PlaybackOptions{
		ProgressInterval:  c.ProgressInterval,
		ControlsHideAfter: c.ControlsHideAfter,
		SkipStep:          c.SkipStep,
		Autoplay:          c.Autoplay == nil || *c.Autoplay,
	}
	opts.applyDefaults()
	return opts
}

func (o *PlaybackOptions) applyDefaults() {
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = 5 * time.Second
	}
	if o.ControlsHideAfter <= 0 {
		o.ControlsHideAfter = 3 * time.Second
	}
	if o.SkipStep <= 0 {
		o.SkipStep = 10 * time.Second
	}
}

var _ PlaybackUseCase = (*playbackUC)(nil)

// PlaybackUseCase hands out playback sessions. A media resource is leased to
// one session at a time.
type PlaybackUseCase interface {
	Open(ctx context.Context, media adapter.MediaResource, host adapter.FullscreenHost) (PlaybackSession, error)
}

// PlaybackSession controls one watch view. isPlaying only follows the
// resource's own play, pause and ended events.
type PlaybackSession interface {
	Load(ctx context.Context, movieID int) error
	TogglePlay(ctx context.Context) error
	Seek(fraction float64) error
	Skip(delta time.Duration) error
	Forward() error
	Rewind() error
	SetVolume(v float64) error
	ToggleMute() error
	ToggleFullscreen(ctx context.Context) error
	PointerActivity()
	State() model.PlaybackSnapshot
	Close(ctx context.Context) error
}

type playbackUC struct {
	catalog adapter.Catalog
	store   repository.KeyValueStore
	sched   adapter.Scheduler
	notify  adapter.Notifier
	nav     adapter.Navigator
	opts    PlaybackOptions
	log     *zerolog.Logger

	mu     sync.Mutex
	leased map[adapter.MediaResource]struct{}
}

func NewPlaybackUseCase(
	catalog adapter.Catalog,
	store repository.KeyValueStore,
	sched adapter.Scheduler,
	notify adapter.Notifier,
	nav adapter.Navigator,
	opts PlaybackOptions,
	logger *zerolog.Logger,
) *playbackUC {
	opts.applyDefaults()
	l := logger.With().Str("component", "PlaybackUC").Logger()
	return &playbackUC{
		catalog: catalog,
		store:   store,
		sched:   sched,
		notify:  notify,
		nav:     nav,
		opts:    opts,
		log:     &l,
		leased:  make(map[adapter.MediaResource]struct{}),
	}
}

func (u *playbackUC) Open(ctx context.Context, media adapter.MediaResource, host adapter.FullscreenHost) (PlaybackSession, error) {
	if media == nil {
		return nil, fmt.Errorf("%w: media resource nil", domain.ErrInvalidArgument)
	}
	u.mu.Lock()
	if _, busy := u.leased[media]; busy {
		u.mu.Unlock()
		return nil, domain.ErrResourceBusy
	}
	u.leased[media] = struct{}{}
	u.mu.Unlock()

	s := &playbackSession{
		uc:              u,
		media:           media,
		host:            host,
		controlsVisible: true,
		lastVolume:      1,
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.unsubMedia = media.Subscribe(s.onMediaEvent)
	if host != nil {
		s.fullscreen = host.IsFullscreen()
		s.unsubHost = host.OnChange(s.onFullscreenChange)
	}
	metrics.PlaybackSessionOpened()
	return s, nil
}

func (u *playbackUC) release(media adapter.MediaResource) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.leased, media)
}

type playbackSession struct {
	uc    *playbackUC
	media adapter.MediaResource
	host  adapter.FullscreenHost

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	movie           *model.Movie
	source          string
	state           model.PlaybackState
	isPlaying       bool
	fullscreen      bool
	controlsVisible bool
	lastVolume      float64
	resumeAt        float64
	resumed         bool
	progressH       adapter.Handle
	controlsH       adapter.Handle
	controlsGen     int
	unsubMedia      func()
	unsubHost       func()
	closed          bool
}

func (s *playbackSession) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *playbackSession) logger() *zerolog.Logger {
	return logging.With(s.context(), s.uc.log)
}

// Load resolves movieID, opens its source and starts progress persistence.
// The stored position is read here and applied on loadedmetadata.
func (s *playbackSession) Load(ctx context.Context, movieID int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.state != "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: session already loaded", domain.ErrInvalidArgument)
	}
	s.state = model.PlaybackLoading
	s.ctx = logging.WithMovieID(s.ctx, movieID)
	s.mu.Unlock()

	movies, err := s.uc.catalog.ListMovies(ctx)
	if err != nil {
		return s.fail(ctx, "lookup_error", MsgVideoLoadFailed, err)
	}
	var movie *model.Movie
	for _, m := range movies {
		if m != nil && m.ID == movieID {
			movie = m
			break
		}
	}
	switch {
	case movie == nil:
		return s.fail(ctx, "not_found", MsgMovieNotAvailable, fmt.Errorf("movie %d: %w", movieID, domain.ErrNotFound))
	case !movie.Playable():
		return s.fail(ctx, "no_source", MsgMovieNotAvailable, fmt.Errorf("movie %d has no video source", movieID))
	}

	resumeAt := 0.0
	if raw, ok, rerr := s.uc.store.Get(ctx, model.WatchProgressKey(movieID)); rerr != nil {
		s.logger().Warn().Err(rerr).Msg("read watch progress")
	} else if ok {
		if v, valid := model.ParseProgress(raw); valid {
			resumeAt = v
		}
	}

	// Metadata may arrive while Open is still running, so the resume
	// position must be in place first.
	src := s.uc.catalog.MediaURL(movie.VideoURL)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.movie = movie
	s.source = src
	s.resumeAt = resumeAt
	s.mu.Unlock()

	if err := s.media.Open(ctx, src); err != nil {
		return s.fail(ctx, "open_error", MsgVideoLoadFailed, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.progressH = s.uc.sched.AfterFunc(s.uc.opts.ProgressInterval, s.saveTick)
	s.mu.Unlock()

	s.logger().Info().Str("title", movie.Title).Float64("resume_at", resumeAt).Msg("media opened")

	if s.uc.opts.Autoplay {
		if perr := s.media.Play(ctx); perr != nil {
			s.logger().Warn().Err(perr).Msg("autoplay rejected")
		}
	}
	return nil
}

// fail ends the session's load: alert once, go back.
func (s *playbackSession) fail(ctx context.Context, reason, msg string, cause error) error {
	s.mu.Lock()
	if s.closed || s.state == model.PlaybackFailed {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", domain.ErrMediaLoad, cause)
	}
	s.state = model.PlaybackFailed
	s.isPlaying = false
	s.stopTimersLocked()
	s.mu.Unlock()

	metrics.IncPlaybackLoadFailure(reason)
	s.logger().Error().Err(cause).Str("reason", reason).Msg("playback load failed")
	s.uc.notify.Error(ctx, msg)
	s.uc.nav.Back(ctx)
	return fmt.Errorf("%w: %v", domain.ErrMediaLoad, cause)
}

func (s *playbackSession) stopTimersLocked() {
	if s.progressH != nil {
		s.progressH.Cancel()
		s.progressH = nil
	}
	if s.controlsH != nil {
		s.controlsH.Cancel()
		s.controlsH = nil
	}
}

func (s *playbackSession) onMediaEvent(ev adapter.MediaEvent) {
	switch ev {
	case adapter.MediaLoadedMetadata:
		s.applyResume()
	case adapter.MediaPlay:
		s.mu.Lock()
		if s.active() {
			s.isPlaying = true
			if s.state == model.PlaybackEnded {
				s.state = model.PlaybackReady
			}
			s.restartControlsLocked()
		}
		s.mu.Unlock()
	case adapter.MediaPause:
		s.mu.Lock()
		if s.active() {
			s.isPlaying = false
			s.showControlsLocked()
		}
		s.mu.Unlock()
	case adapter.MediaEnded:
		s.mu.Lock()
		if s.active() {
			s.isPlaying = false
			s.state = model.PlaybackEnded
			s.showControlsLocked()
		}
		s.mu.Unlock()
	case adapter.MediaError:
		s.mu.Lock()
		loaded := s.active()
		s.mu.Unlock()
		if loaded {
			_ = s.fail(s.context(), "media_error", MsgVideoLoadFailed, errors.New("media resource reported an error"))
		}
	}
}

// active reports whether events may still change the session. s.mu must be held.
func (s *playbackSession) active() bool {
	return !s.closed && s.state != "" && s.state != model.PlaybackFailed
}

// applyResume seeks to the stored position exactly once, after metadata.
func (s *playbackSession) applyResume() {
	s.mu.Lock()
	if !s.active() || s.resumed {
		s.mu.Unlock()
		return
	}
	s.resumed = true
	if s.state == model.PlaybackLoading {
		s.state = model.PlaybackReady
	}
	at := s.resumeAt
	s.mu.Unlock()

	if at <= 0 {
		return
	}
	if d := s.media.Duration(); model.KnownDuration(d) {
		at = math.Min(at, d)
	} else if math.IsNaN(d) {
		return
	}
	s.media.SetCurrentTime(at)
	s.logger().Debug().Float64("position", at).Msg("resumed from last position")
}

func (s *playbackSession) onFullscreenChange(fullscreen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.fullscreen = fullscreen
	}
}

// saveTick writes the position and re-arms itself.
func (s *playbackSession) saveTick() {
	s.mu.Lock()
	if s.closed || s.progressH == nil {
		s.mu.Unlock()
		return
	}
	s.progressH = nil
	s.mu.Unlock()

	s.saveProgress(s.context())

	s.mu.Lock()
	if !s.closed && s.state != model.PlaybackFailed {
		s.progressH = s.uc.sched.AfterFunc(s.uc.opts.ProgressInterval, s.saveTick)
	}
	s.mu.Unlock()
}

// saveProgress is fire-and-forget: a lost write is superseded by the next.
func (s *playbackSession) saveProgress(ctx context.Context) {
	s.mu.Lock()
	movie := s.movie
	s.mu.Unlock()
	if movie == nil {
		return
	}
	t := s.media.CurrentTime()
	if !(t > 0) || math.IsInf(t, 0) {
		return
	}
	err := s.uc.store.Set(ctx, model.WatchProgressKey(movie.ID), model.EncodeProgress(t))
	metrics.IncProgressWrite(err == nil)
	if err != nil {
		s.logger().Warn().Err(err).Msg("save watch progress")
	}
}

func (s *playbackSession) showControlsLocked() {
	s.controlsVisible = true
	if s.controlsH != nil {
		s.controlsH.Cancel()
		s.controlsH = nil
	}
}

func (s *playbackSession) restartControlsLocked() {
	s.showControlsLocked()
	s.controlsGen++
	gen := s.controlsGen
	s.controlsH = s.uc.sched.AfterFunc(s.uc.opts.ControlsHideAfter, func() { s.hideControls(gen) })
}

func (s *playbackSession) hideControls(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.controlsH == nil || gen != s.controlsGen {
		return
	}
	s.controlsH = nil
	if s.isPlaying {
		s.controlsVisible = false
	}
}

func (s *playbackSession) PointerActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.restartControlsLocked()
}

// usable guards the transport controls.
func (s *playbackSession) usable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return domain.ErrSessionClosed
	case s.state == "":
		return fmt.Errorf("%w: nothing loaded", domain.ErrInvalidArgument)
	case s.state == model.PlaybackFailed:
		return domain.ErrMediaLoad
	}
	return nil
}

// TogglePlay asks the resource to play or pause; the session only changes
// when the resource reports back. A rejected play is logged and returned
// wrapped in ErrPlaybackRejected; the session stays usable.
func (s *playbackSession) TogglePlay(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return err
	}
	s.PointerActivity()

	s.mu.Lock()
	playing := s.isPlaying
	s.mu.Unlock()

	if playing {
		s.media.Pause()
		return nil
	}
	if err := s.media.Play(ctx); err != nil {
		s.logger().Warn().Err(err).Msg("play request rejected")
		return fmt.Errorf("%w: %v", domain.ErrPlaybackRejected, err)
	}
	return nil
}

func (s *playbackSession) Seek(fraction float64) error {
	if err := s.usable(); err != nil {
		return err
	}
	d := s.media.Duration()
	if !model.KnownDuration(d) || math.IsNaN(fraction) {
		return nil
	}
	s.media.SetCurrentTime(clamp(fraction, 0, 1) * d)
	return nil
}

func (s *playbackSession) Skip(delta time.Duration) error {
	if err := s.usable(); err != nil {
		return err
	}
	d := s.media.Duration()
	if !model.KnownDuration(d) {
		return nil
	}
	s.media.SetCurrentTime(clamp(s.media.CurrentTime()+delta.Seconds(), 0, d))
	return nil
}

func (s *playbackSession) Forward() error { return s.Skip(s.uc.opts.SkipStep) }
func (s *playbackSession) Rewind() error  { return s.Skip(-s.uc.opts.SkipStep) }

func (s *playbackSession) SetVolume(v float64) error {
	if err := s.usable(); err != nil {
		return err
	}
	if math.IsNaN(v) {
		return fmt.Errorf("%w: volume NaN", domain.ErrInvalidArgument)
	}
	v = clamp(v, 0, 1)
	if v > 0 {
		s.mu.Lock()
		s.lastVolume = v
		s.mu.Unlock()
	}
	s.media.SetVolume(v)
	return nil
}

// ToggleMute mutes, or restores the last non-zero volume.
func (s *playbackSession) ToggleMute() error {
	if err := s.usable(); err != nil {
		return err
	}
	if v := s.media.Volume(); v > 0 {
		s.mu.Lock()
		s.lastVolume = v
		s.mu.Unlock()
		s.media.SetVolume(0)
		return nil
	}
	s.mu.Lock()
	restore := s.lastVolume
	s.mu.Unlock()
	if restore <= 0 {
		restore = 1
	}
	s.media.SetVolume(restore)
	return nil
}

// ToggleFullscreen asks the host to switch; IsFullscreen follows the host's
// change callback.
func (s *playbackSession) ToggleFullscreen(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.host == nil {
		return fmt.Errorf("%w: no fullscreen host", domain.ErrPlaybackRejected)
	}
	s.mu.Lock()
	full := s.fullscreen
	s.mu.Unlock()

	var err error
	if full {
		err = s.host.ExitFullscreen(ctx)
	} else {
		err = s.host.RequestFullscreen(ctx)
	}
	if err != nil {
		s.logger().Warn().Err(err).Bool("exit", full).Msg("fullscreen request rejected")
		return fmt.Errorf("%w: %v", domain.ErrPlaybackRejected, err)
	}
	return nil
}

func (s *playbackSession) State() model.PlaybackSnapshot {
	s.mu.Lock()
	snap := model.PlaybackSnapshot{
		Source:          s.source,
		State:           s.state,
		IsPlaying:       s.isPlaying,
		IsFullscreen:    s.fullscreen,
		ControlsVisible: s.controlsVisible,
	}
	if s.movie != nil {
		snap.MovieID = s.movie.ID
		snap.Title = s.movie.Title
	}
	s.mu.Unlock()

	snap.CurrentTime = s.media.CurrentTime()
	snap.Duration = s.media.Duration()
	snap.Volume = s.media.Volume()
	snap.Muted = snap.Volume <= 0
	return snap
}

// Close writes the final position, stops every timer and returns the media
// resource to the pool. Calling it again is a no-op.
func (s *playbackSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	failed := s.state == model.PlaybackFailed
	s.stopTimersLocked()
	s.mu.Unlock()

	if !failed {
		s.saveProgress(ctx)
	}

	s.mu.Lock()
	s.closed = true
	s.state = model.PlaybackClosed
	s.isPlaying = false
	unsubMedia, unsubHost := s.unsubMedia, s.unsubHost
	s.unsubMedia, s.unsubHost = nil, nil
	s.mu.Unlock()

	if unsubMedia != nil {
		unsubMedia()
	}
	if unsubHost != nil {
		unsubHost()
	}
	if !s.media.Paused() {
		s.media.Pause()
	}
	s.cancel()
	s.uc.release(s.media)
	metrics.PlaybackSessionClosed()
	s.logger().Debug().Msg("playback session closed")
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
