package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		checkoutAttemptsTotal,
		checkoutPollsTotal,
		checkoutPollDuration,
		checkoutInFlight,
	)
}

var (
	// state: initiating|succeeded|failed|timed_out|cancelled
	checkoutAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "STK push checkout attempts by state reached.",
		},
		[]string{"state"},
	)

	// outcome: pending|confirmed|definitive_failure|error
	checkoutPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_polls_total",
			Help: "Payment status polls by outcome.",
		},
		[]string{"outcome"},
	)

	checkoutPollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_poll_duration_seconds",
			Help:    "Round-trip time of payment status polls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
	)

	checkoutInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_in_flight",
			Help: "Checkout attempts currently initiating or awaiting confirmation.",
		},
	)
)

func IncCheckoutAttempt(state string) {
	checkoutAttemptsTotal.WithLabelValues(norm(state)).Inc()
}

func ObservePoll(outcome string, d time.Duration) {
	checkoutPollsTotal.WithLabelValues(norm(outcome)).Inc()
	checkoutPollDuration.Observe(d.Seconds())
}

func CheckoutStarted()  { checkoutInFlight.Inc() }
func CheckoutFinished() { checkoutInFlight.Dec() }
