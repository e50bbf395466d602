// Package state implements the run/session state machine (C4): run-id
// allocation, run-root directory layout, the active-run and
// active-provider sentinels, and the ordering invariants that govern
// collector-plane and provider-plane transitions.
package state
