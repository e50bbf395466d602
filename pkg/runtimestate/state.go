package runtimestate

import (
	"sync"
	"time"
)

// EventType enumerates the lifecycle and degradation events the
// scheduler and RPC server emit onto the event ring (§4.6, §4.9).
type EventType string

const (
	EventRunStarted                 EventType = "run.started"
	EventRunStopped                 EventType = "run.stopped"
	EventCollectorLagDegradation    EventType = "collector.lag.degradation"
	EventAttributionUncertaintyWarn EventType = "attribution.uncertainty.warning"
)

// Event is one entry on the bounded event ring. ID is assigned under the
// state mutex so SSE consumers observe a strictly monotonic sequence
// (§5 ordering guarantees).
type Event struct {
	ID        uint64
	Type      EventType
	Timestamp time.Time
	Reason    string
	Metadata  map[string]string
}

// Warning is one entry on the bounded warning ring — a degradation
// surfaced to operators without aborting whatever produced it.
type Warning struct {
	ID        uint64
	Timestamp time.Time
	Reason    string
	Detail    string
}

const (
	maxEventRing   = 512
	maxWarningRing = 128
)

// State is the single shared struct §9 mandates: one mutex, one condvar,
// no fan-out into finer-grained locks.
type State struct {
	mu   sync.Mutex
	cond *sync.Cond

	nextEventID uint64
	events      []Event
	warnings    []Warning

	shutdown               bool
	rotationPending        bool
	lastProviderActivityAt time.Time
}

// New returns a ready-to-use State.
func New() *State {
	s := &State{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// EmitEvent appends an event to the ring, evicting the oldest entry past
// maxEventRing, assigns it the next monotonic id, and wakes any waiters.
func (s *State) EmitEvent(eventType EventType, reason string, metadata map[string]string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Reason:    reason,
		Metadata:  metadata,
	}
	s.events = append(s.events, ev)
	if len(s.events) > maxEventRing {
		s.events = s.events[len(s.events)-maxEventRing:]
	}
	s.cond.Broadcast()
	return ev
}

// EmitWarning appends a warning to the ring, evicting the oldest entry
// past maxWarningRing, and wakes any waiters.
func (s *State) EmitWarning(reason, detail string) Warning {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	w := Warning{
		ID:        s.nextEventID,
		Timestamp: time.Now().UTC(),
		Reason:    reason,
		Detail:    detail,
	}
	s.warnings = append(s.warnings, w)
	if len(s.warnings) > maxWarningRing {
		s.warnings = s.warnings[len(s.warnings)-maxWarningRing:]
	}
	s.cond.Broadcast()
	return w
}

// EventsSince returns the retained events with ID > afterID, plus a bool
// reporting whether any events older than the retained window were
// skipped (the gap the SSE handler resumes past, sending no event for it
// and marking it only with an SSE comment line).
func (s *State) EventsSince(afterID uint64) ([]Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == 0 {
		return nil, false
	}
	oldest := s.events[0].ID
	skipped := afterID > 0 && afterID < oldest-1 && oldest > 1

	var out []Event
	for _, ev := range s.events {
		if ev.ID > afterID {
			out = append(out, ev)
		}
	}
	return out, skipped
}

// Warnings returns a snapshot of the warning ring.
func (s *State) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// LatestEventID returns the most recently assigned event id (0 if none).
func (s *State) LatestEventID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEventID
}

// SetShutdown marks the supervisor as shutting down and wakes waiters.
func (s *State) SetShutdown(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = v
	s.cond.Broadcast()
}

// Shutdown reports whether shutdown has been requested.
func (s *State) Shutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// SetRotationPending records whether a deferred rotation is outstanding.
func (s *State) SetRotationPending(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotationPending = v
	s.cond.Broadcast()
}

// RotationPending reports the current rotation-pending flag.
func (s *State) RotationPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotationPending
}

// TouchProviderActivity records that the provider plane was observed
// running at ts (the scheduler calls this every tick while a provider is
// up), resolving the last_provider_activity_at input the idle-timeout
// rule needs.
func (s *State) TouchProviderActivity(ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastProviderActivityAt = ts
	s.cond.Broadcast()
}

// LastProviderActivity returns the last recorded provider-activity
// timestamp; the zero value means none has been recorded this process
// lifetime (callers fall back to the active-run's started_at per §5's
// documented Open Question resolution).
func (s *State) LastProviderActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProviderActivityAt
}

// WaitForMutation blocks until the condvar is signalled or timeout
// elapses, returning true if the event id counter, the shutdown flag or
// the rotation-pending flag changed while it waited. Used
// by the SSE handler to avoid a busy poll while waiting up to 15s for a
// new event (§4.5).
func (s *State) WaitForMutation(timeout time.Duration) bool {
	timer := time.AfterFunc(timeout, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()

	s.mu.Lock()
	before := s.nextEventID
	beforeShutdown := s.shutdown
	beforeRotation := s.rotationPending
	s.cond.Wait()
	after := s.nextEventID
	afterShutdown := s.shutdown
	afterRotation := s.rotationPending
	s.mu.Unlock()

	return after != before || afterShutdown != beforeShutdown || afterRotation != beforeRotation
}
