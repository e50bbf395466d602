package scheduler

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lux-run/lux/pkg/activity"
	"github.com/lux-run/lux/pkg/config"
	"github.com/lux-run/lux/pkg/log"
	"github.com/lux-run/lux/pkg/metrics"
	"github.com/lux-run/lux/pkg/runtimestate"
	"github.com/lux-run/lux/pkg/state"
)

const tickInterval = 30 * time.Second

// PlaneStatusFunc reports whether a plane is currently running.
type PlaneStatusFunc func() (bool, error)

// SubprocessFunc invokes a lifecycle subcommand (e.g. `down
// --collector-only`) and reports whether it succeeded.
type SubprocessFunc func() error

// Deps wires the scheduler to the rest of the supervisor process. All
// funcs are supplied by the caller, who owns the C7 compose integration
// this package does not depend on directly.
type Deps struct {
	Config  *config.Document
	LogRoot string

	State    *runtimestate.State
	Activity *activity.Store

	CollectorRunning PlaneStatusFunc
	ProviderRunning  PlaneStatusFunc

	StopCollectorOnly        SubprocessFunc
	StopCollectorForCutover  SubprocessFunc
	StartCollectorForCutover SubprocessFunc

	JournalPath string
}

// Scheduler runs Deps' tick logic on a fixed 30s cadence.
type Scheduler struct {
	deps   Deps
	logger zerolog.Logger

	mu     sync.Mutex
	stopCh chan struct{}

	rotationDeferredWarned bool
}

// New constructs a Scheduler; call Start to begin ticking.
func New(deps Deps) *Scheduler {
	return &Scheduler{
		deps:   deps,
		logger: log.WithComponent("scheduler"),
		stopCh: make(chan struct{}),
	}
}

// Start begins the 30s tick loop in a background goroutine.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop halts the tick loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(time.Now().UTC())
		case <-s.stopCh:
			return
		}
	}
}

// tick performs one scheduling cycle: read plane running-state, update
// provider activity, then apply the idle-timeout and rotation rules in
// order (§4.6).
func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.SchedulerTicksTotal.Inc()

	collectorRunning, err := s.planeRunning(s.deps.CollectorRunning)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: query collector plane failed")
		return
	}
	providerRunning, err := s.planeRunning(s.deps.ProviderRunning)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: query provider plane failed")
		return
	}

	if providerRunning {
		s.deps.State.TouchProviderActivity(now)
		if s.deps.Activity != nil {
			if err := s.deps.Activity.SetLastProviderActivity(now); err != nil {
				s.logger.Warn().Err(err).Msg("scheduler: persist provider activity failed")
			}
		}
	}

	active, err := state.LoadActiveRun(s.deps.LogRoot)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: load active-run sentinel failed")
		return
	}
	if active == nil {
		return
	}

	s.applyIdleTimeoutRule(now, active, collectorRunning, providerRunning)
	s.applyRotationRule(now, active, collectorRunning, providerRunning)
}

func (s *Scheduler) planeRunning(f PlaneStatusFunc) (bool, error) {
	if f == nil {
		return false, nil
	}
	return f()
}
