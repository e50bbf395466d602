// Package doctor runs the readiness-check battery (§4.9, C9): container
// engine reachability, compose contract presence, log-sink writability,
// path coherence, and the other structured health probes `lux doctor`
// reports on.
package doctor
