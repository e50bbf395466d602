package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scheduler metrics (C6)
	SchedulerTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lux_scheduler_ticks_total",
			Help: "Total number of scheduler tick cycles executed",
		},
	)

	IdleTimeoutStopsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lux_idle_timeout_stops_total",
			Help: "Total number of collector stops triggered by idle timeout",
		},
	)

	RotationCutoversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lux_rotation_cutovers_total",
			Help: "Total number of log rotation cutovers by result",
		},
		[]string{"result"},
	)

	RotationDeferredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lux_rotation_deferred_total",
			Help: "Total number of rotation-deferred edges (rotation due while provider active)",
		},
	)

	// Event/warning ring metrics (§3 runtime shared state)
	EventsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lux_events_emitted_total",
			Help: "Total number of events emitted onto the shared event ring, by type",
		},
		[]string{"type"},
	)

	WarningsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lux_warnings_emitted_total",
			Help: "Total number of warnings emitted onto the shared warning ring",
		},
	)

	EventRingSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lux_event_ring_size",
			Help: "Current number of retained entries on the event ring",
		},
	)

	WarningRingSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lux_warning_ring_size",
			Help: "Current number of retained entries on the warning ring",
		},
	)

	RotationPendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lux_rotation_pending",
			Help: "Whether a rotation is currently pending (1) or not (0)",
		},
	)

	// Compose driver metrics (C7)
	ComposeCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lux_compose_commands_total",
			Help: "Total number of docker compose invocations by verb and result",
		},
		[]string{"verb", "result"},
	)

	ComposeCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lux_compose_command_duration_seconds",
			Help:    "docker compose invocation duration in seconds, by verb",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	// RPC server metrics (C5)
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lux_api_requests_total",
			Help: "Total number of supervisor RPC requests by path",
		},
		[]string{"path"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lux_api_request_duration_seconds",
			Help:    "Supervisor RPC request duration in seconds, by path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// Harness session/job metrics
	HarnessJobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lux_harness_jobs_running",
			Help: "Number of harness jobs currently in a running/submitted state",
		},
	)

	HarnessJobsFinished = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lux_harness_jobs_finished",
			Help: "Number of harness jobs that have finished for the active run",
		},
	)

	HarnessSessionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lux_harness_sessions_total",
			Help: "Number of harness sessions recorded for the active run",
		},
	)
)

func init() {
	prometheus.MustRegister(SchedulerTicksTotal)
	prometheus.MustRegister(IdleTimeoutStopsTotal)
	prometheus.MustRegister(RotationCutoversTotal)
	prometheus.MustRegister(RotationDeferredTotal)
	prometheus.MustRegister(EventsEmittedTotal)
	prometheus.MustRegister(WarningsEmittedTotal)
	prometheus.MustRegister(EventRingSize)
	prometheus.MustRegister(WarningRingSize)
	prometheus.MustRegister(RotationPendingGauge)
	prometheus.MustRegister(ComposeCommandsTotal)
	prometheus.MustRegister(ComposeCommandDuration)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(HarnessJobsRunning)
	prometheus.MustRegister(HarnessJobsFinished)
	prometheus.MustRegister(HarnessSessionsTotal)
}

// Handler returns the Prometheus HTTP handler, mounted by the supervisor
// at the internal /v1/metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
