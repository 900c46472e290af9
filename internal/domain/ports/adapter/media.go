package adapter

import "context"

type MediaEvent string

const (
	MediaLoadedMetadata MediaEvent = "loadedmetadata"
	MediaPlay           MediaEvent = "play"
	MediaPause          MediaEvent = "pause"
	MediaEnded          MediaEvent = "ended"
	MediaTimeUpdate     MediaEvent = "timeupdate"
	MediaError          MediaEvent = "error"
)

// MediaResource is a single playable media handle (a video element, a
// platform player, a test double). State changes are reported through
// Subscribe; callers must not assume Play or Pause took effect until the
// matching event arrives.
type MediaResource interface {
	// Open points the resource at src. Metadata arrives later as MediaLoadedMetadata.
	Open(ctx context.Context, src string) error
	// Play requests playback. It may be rejected (autoplay policy etc.).
	Play(ctx context.Context) error
	Pause()
	Paused() bool

	CurrentTime() float64
	SetCurrentTime(seconds float64)
	// Duration is NaN until metadata is loaded.
	Duration() float64

	Volume() float64
	SetVolume(v float64)

	// Subscribe registers fn for every event and returns an unsubscribe func.
	Subscribe(fn func(MediaEvent)) (unsubscribe func())
	Close() error
}

// FullscreenHost is the host's fullscreen API for the player container.
type FullscreenHost interface {
	IsFullscreen() bool
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
	// OnChange registers fn for fullscreen changes and returns an unsubscribe func.
	OnChange(fn func(fullscreen bool)) (unsubscribe func())
}
