// Package runtimestate holds the supervisor's process-local runtime
// state — the event ring, the warning ring, and the plane flags the
// acceptor, RPC handlers, and scheduler all read and mutate. A single
// (sync.Mutex, sync.Cond) pair protects one plain struct; callers block
// on the condvar rather than polling.
package runtimestate
