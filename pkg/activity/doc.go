// Package activity persists the one piece of scheduler state that must
// survive a supervisor restart mid-run: the last time the provider plane
// was observed running. Everything else in runtimestate is process-local
// and resets on restart; this single record does not.
package activity
