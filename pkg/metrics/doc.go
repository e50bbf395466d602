// Package metrics exposes the supervisor's self-observability surface.
//
// Most counters and histograms are updated inline by the packages that
// own the events they describe (pkg/scheduler increments tick/rotation
// counters, pkg/compose times its invocations, pkg/rpcserver records
// request counts). Collector fills in the gauges that only make sense
// as periodic samples of shared state: event/warning ring occupancy,
// rotation-pending, and harness job/session counts.
//
// Handler returns the promhttp handler the supervisor mounts at
// /v1/metrics. HealthHandler/ReadyHandler/LivenessHandler are net/http
// handlers for /health, /ready and liveness endpoints; the supervisor does
// not mount them (its /v1/healthz is served by pkg/rpcserver).
package metrics
