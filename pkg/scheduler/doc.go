// Package scheduler runs the supervisor's 30-second tick: the
// idle-timeout rule that stops an unattended collector and the rotation
// rule that defers to provider activity or cuts a run directory over,
// emitting lifecycle events into both the runtime event ring and a
// durable JSON-lines journal.
package scheduler
