package match

import "github.com/prometheus/client_golang/prometheus"

var (
	gamesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quinttest_games_total",
			Help: "Total number of games played, by outcome.",
		},
		[]string{"outcome"},
	)

	gameDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quinttest_game_duration_seconds",
			Help:    "Wall-clock duration of a game, in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	activeWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quinttest_active_workers",
			Help: "Number of match workers currently running.",
		},
	)

	matchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quinttest_matches_total",
			Help: "Total number of matches finished, by final status.",
		},
		[]string{"status"},
	)

	streamMessagesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quinttest_stream_messages_dropped_total",
			Help: "Match events evicted from a slow stream subscriber's backlog.",
		},
	)
)

func init() {
	prometheus.MustRegister(gamesTotal)
	prometheus.MustRegister(gameDuration)
	prometheus.MustRegister(activeWorkers)
	prometheus.MustRegister(matchesTotal)
	prometheus.MustRegister(streamMessagesDropped)

	// Pre-initialize label combinations so they appear in /metrics with value 0.
	for _, k := range []OutcomeKind{OutcomeWinA, OutcomeWinB, OutcomeDraw, OutcomeAborted, OutcomeError} {
		gamesTotal.WithLabelValues(k.String())
	}
}
