package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(playbackSessionsActive, playbackProgressWrites, playbackLoadFailures)
}

var (
	playbackSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "playback_sessions_active",
			Help: "Playback sessions currently holding a media resource.",
		},
	)

	// result: ok|error
	playbackProgressWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_progress_writes_total",
			Help: "Watch progress writes by result.",
		},
		[]string{"result"},
	)

	// reason: not_found|no_source|lookup_error|open_error|media_error
	playbackLoadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_load_failures_total",
			Help: "Playback sessions that failed to load media, by bounded reason.",
		},
		[]string{"reason"},
	)
)

func PlaybackSessionOpened() { playbackSessionsActive.Inc() }
func PlaybackSessionClosed() { playbackSessionsActive.Dec() }

func IncProgressWrite(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	playbackProgressWrites.WithLabelValues(result).Inc()
}

func IncPlaybackLoadFailure(reason string) {
	playbackLoadFailures.WithLabelValues(norm(reason)).Inc()
}
