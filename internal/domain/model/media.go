package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Movie is a catalog entry. VideoURL is the media locator; it may be a path
// relative to the media host.
type Movie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"video_url"`
	PosterURL   string `json:"poster_url,omitempty"`
}

// Playable reports whether the movie carries a media source.
func (m *Movie) Playable() bool { return m != nil && strings.TrimSpace(m.VideoURL) != "" }

type PlaybackState string

const (
	PlaybackLoading PlaybackState = "loading"
	PlaybackReady   PlaybackState = "ready"
	PlaybackEnded   PlaybackState = "ended"
	PlaybackFailed  PlaybackState = "failed"
	PlaybackClosed  PlaybackState = "closed"
)

// WatchProgressKey is the store key holding the last position of a movie.
func WatchProgressKey(movieID int) string {
	return fmt.Sprintf("watch-%d", movieID)
}

// EncodeProgress renders seconds the way the store keeps them.
func EncodeProgress(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// ParseProgress decodes a stored position. Garbage and negative values are rejected.
func ParseProgress(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// KnownDuration reports whether d can be used for seek arithmetic.
func KnownDuration(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
}

// ProgressFraction is the filled share of the progress bar, in [0,1].
func ProgressFraction(current, duration float64) float64 {
	if !KnownDuration(duration) || current <= 0 {
		return 0
	}
	return math.Min(current/duration, 1)
}

// FormatClock renders seconds as m:ss; unknown or zero time is 0:00.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// PlaybackSnapshot is a point-in-time view of a playback session.
type PlaybackSnapshot struct {
	MovieID         int           `json:"movie_id"`
	Title           string        `json:"title"`
	Source          string        `json:"source"`
	State           PlaybackState `json:"state"`
	CurrentTime     float64       `json:"current_time"`
	Duration        float64       `json:"-"` // NaN until metadata
	IsPlaying       bool          `json:"is_playing"`
	Volume          float64       `json:"volume"`
	Muted           bool          `json:"muted"`
	IsFullscreen    bool          `json:"is_fullscreen"`
	ControlsVisible bool          `json:"controls_visible"`
}

// Progress is the filled share of the progress bar.
func (s PlaybackSnapshot) Progress() float64 { return ProgressFraction(s.CurrentTime, s.Duration) }

// Clock renders "elapsed / total".
func (s PlaybackSnapshot) Clock() string {
	return FormatClock(s.CurrentTime) + " / " + FormatClock(s.Duration)
}
