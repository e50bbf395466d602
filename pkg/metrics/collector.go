package metrics

import (
	"time"

	"github.com/lux-run/lux/pkg/harness"
	"github.com/lux-run/lux/pkg/runtimestate"
	"github.com/lux-run/lux/pkg/state"
)

// Collector periodically samples the shared runtime state and the active
// run's harness directory, updating the gauges that can't be set
// inline at the point of mutation (ring sizes, rotation-pending,
// harness job/session counts).
type Collector struct {
	state   *runtimestate.State
	logRoot string
	stopCh  chan struct{}
}

// NewCollector creates a metrics collector bound to the supervisor's
// shared state and log root.
func NewCollector(st *runtimestate.State, logRoot string) *Collector {
	return &Collector{
		state:   st,
		logRoot: logRoot,
		stopCh:  make(chan struct{}),
	}
}

// Start begins periodic collection on a 15 second interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectRuntimeState()
	c.collectHarness()
}

func (c *Collector) collectRuntimeState() {
	if c.state == nil {
		return
	}
	events, _ := c.state.EventsSince(0)
	EventRingSize.Set(float64(len(events)))
	WarningRingSize.Set(float64(len(c.state.Warnings())))

	if c.state.RotationPending() {
		RotationPendingGauge.Set(1)
	} else {
		RotationPendingGauge.Set(0)
	}
}

func (c *Collector) collectHarness() {
	if c.logRoot == "" {
		return
	}
	active, err := state.LoadActiveRun(c.logRoot)
	if err != nil || active == nil {
		HarnessJobsRunning.Set(0)
		HarnessJobsFinished.Set(0)
		HarnessSessionsTotal.Set(0)
		return
	}
	runRoot := state.RunRoot(c.logRoot, active.RunID)
	summary := harness.Summarize(runRoot)
	HarnessJobsRunning.Set(float64(summary.JobsRunning))
	HarnessJobsFinished.Set(float64(summary.JobsFinished))
	HarnessSessionsTotal.Set(float64(summary.SessionCount))
}
