package scheduler

import (
	"time"

	"github.com/lux-run/lux/pkg/log"
	"github.com/lux-run/lux/pkg/metrics"
	"github.com/lux-run/lux/pkg/runtimestate"
	"github.com/lux-run/lux/pkg/state"
)

// applyIdleTimeoutRule stops an unattended collector once the provider
// has been inactive (or never active) for idle_timeout_min (§4.6 rule 3).
func (s *Scheduler) applyIdleTimeoutRule(now time.Time, active *state.ActiveRunState, collectorRunning, providerRunning bool) {
	if !collectorRunning || providerRunning {
		return
	}
	idleTimeout := time.Duration(s.deps.Config.Collector.IdleTimeoutMin) * time.Minute
	if idleTimeout <= 0 {
		return
	}

	startedAt, err := time.Parse(time.RFC3339, active.StartedAt)
	if err != nil {
		log.WithRunID(active.RunID).Warn().Err(err).Msg("scheduler: malformed active-run started_at")
		return
	}

	idleSince := startedAt
	if last := s.deps.State.LastProviderActivity(); last.After(idleSince) {
		idleSince = last
	}

	if now.Sub(idleSince) < idleTimeout {
		return
	}

	if s.deps.StopCollectorOnly == nil {
		return
	}

	if err := s.deps.StopCollectorOnly(); err != nil {
		s.emitWarning(now, "idle_timeout_stop_failed", err.Error())
		return
	}
	metrics.IdleTimeoutStopsTotal.Inc()
	s.emitEvent(now, runtimestate.EventRunStopped, "idle_timeout", map[string]string{"run_id": active.RunID})
}

// applyRotationRule implements §4.6 rule 4: defer rotation while a
// provider is active (emitting the degradation event exactly once per
// edge), or cut the run over once the provider plane is quiet.
func (s *Scheduler) applyRotationRule(now time.Time, active *state.ActiveRunState, collectorRunning, providerRunning bool) {
	rotateEvery := time.Duration(s.deps.Config.Collector.RotateEveryMin) * time.Minute
	if rotateEvery <= 0 {
		return
	}

	startedAt, err := time.Parse(time.RFC3339, active.StartedAt)
	if err != nil {
		return
	}
	if now.Sub(startedAt) < rotateEvery {
		s.rotationDeferredWarned = false
		return
	}

	if providerRunning {
		wasPending := s.deps.State.RotationPending()
		s.deps.State.SetRotationPending(true)
		if !wasPending && !s.rotationDeferredWarned {
			metrics.RotationDeferredTotal.Inc()
			s.emitEvent(now, runtimestate.EventCollectorLagDegradation, "rotation_deferred_provider_active", map[string]string{"run_id": active.RunID})
			s.rotationDeferredWarned = true
		}
		return
	}

	if !collectorRunning {
		return
	}

	s.rotationDeferredWarned = false
	s.cutoverRotation(now, active)
}

// cutoverRotation stops the collector, pauses, and starts it again under
// a fresh run-id. A failure leaves rotation_pending set and queues a
// warning for manual recovery — the scheduler never retries (§5).
func (s *Scheduler) cutoverRotation(now time.Time, active *state.ActiveRunState) {
	if s.deps.StopCollectorForCutover == nil || s.deps.StartCollectorForCutover == nil {
		return
	}

	s.emitEvent(now, runtimestate.EventRunStopped, "rotation_cutover_start", map[string]string{"run_id": active.RunID})
	log.WithRunID(active.RunID).Info().Msg("scheduler: rotation cutover starting")

	if err := s.deps.StopCollectorForCutover(); err != nil {
		s.emitCutoverFailure(now, err)
		return
	}

	time.Sleep(2 * time.Second)

	if err := s.deps.StartCollectorForCutover(); err != nil {
		s.emitCutoverFailure(now, err)
		return
	}

	s.deps.State.SetRotationPending(false)
	metrics.RotationCutoversTotal.WithLabelValues("success").Inc()
	s.emitEvent(now, runtimestate.EventRunStarted, "rotation_cutover_complete", nil)
}

func (s *Scheduler) emitCutoverFailure(now time.Time, err error) {
	s.deps.State.SetRotationPending(true)
	metrics.RotationCutoversTotal.WithLabelValues("failure").Inc()
	s.emitEvent(now, runtimestate.EventAttributionUncertaintyWarn, "rotation_cutover_failed", map[string]string{"error": err.Error()})
	s.emitWarning(now, "rotation_cutover_failed", err.Error())
}

func (s *Scheduler) emitEvent(now time.Time, eventType runtimestate.EventType, reason string, metadata map[string]string) {
	ev := s.deps.State.EmitEvent(eventType, reason, metadata)
	metrics.EventsEmittedTotal.WithLabelValues(string(eventType)).Inc()
	if s.deps.JournalPath != "" {
		if err := appendJournal(s.deps.JournalPath, ev); err != nil {
			s.logger.Warn().Err(err).Msg("scheduler: append events journal failed")
		}
	}
}

func (s *Scheduler) emitWarning(now time.Time, reason, detail string) {
	s.deps.State.EmitWarning(reason, detail)
	metrics.WarningsEmittedTotal.Inc()
}
