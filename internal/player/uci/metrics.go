package uci

import "github.com/prometheus/client_golang/prometheus"

// Metric label values for launch outcomes.
const (
	launchStarted = "started"
	launchFailed  = "failed"
)

var (
	processLaunchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quinttest_engine_launches_total",
			Help: "Total number of engine process launches by outcome.",
		},
		[]string{"result"},
	)

	activeProcesses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quinttest_engine_active_processes",
			Help: "Number of currently running engine processes.",
		},
	)

	moveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quinttest_engine_move_seconds",
			Help:    "Time from move request to bestmove, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	forcedKillsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quinttest_engine_forced_kills_total",
			Help: "Total number of engine processes killed after ignoring quit.",
		},
	)
)

func init() {
	prometheus.MustRegister(processLaunchesTotal)
	prometheus.MustRegister(activeProcesses)
	prometheus.MustRegister(moveDuration)
	prometheus.MustRegister(forcedKillsTotal)

	processLaunchesTotal.WithLabelValues(launchStarted)
	processLaunchesTotal.WithLabelValues(launchFailed)
}
