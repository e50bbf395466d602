package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/lux-run/lux/pkg/runtimestate"
	"github.com/lux-run/lux/pkg/state"
)

func TestCollectorCollectRuntimeState(t *testing.T) {
	st := runtimestate.New()
	st.EmitEvent(runtimestate.EventRunStarted, "test", nil)
	st.EmitWarning("reason", "detail")
	st.SetRotationPending(true)

	c := NewCollector(st, t.TempDir())
	c.collectRuntimeState()

	require.Equal(t, float64(1), testutil.ToFloat64(EventRingSize))
	require.Equal(t, float64(1), testutil.ToFloat64(WarningRingSize))
	require.Equal(t, float64(1), testutil.ToFloat64(RotationPendingGauge))

	st.SetRotationPending(false)
	c.collectRuntimeState()
	require.Equal(t, float64(0), testutil.ToFloat64(RotationPendingGauge))
}

func TestCollectorCollectHarnessNoActiveRun(t *testing.T) {
	c := NewCollector(runtimestate.New(), t.TempDir())
	c.collectHarness()

	require.Equal(t, float64(0), testutil.ToFloat64(HarnessJobsRunning))
	require.Equal(t, float64(0), testutil.ToFloat64(HarnessJobsFinished))
	require.Equal(t, float64(0), testutil.ToFloat64(HarnessSessionsTotal))
}

func TestCollectorCollectHarnessWithActiveRun(t *testing.T) {
	logRoot := t.TempDir()
	runID := state.NewRunID(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, state.WriteActiveRun(logRoot, state.ActiveRunState{RunID: runID, StartedAt: "2026-01-01T00:00:00Z"}))

	runRoot := state.RunRoot(logRoot, runID)
	jobDir := filepath.Join(runRoot, "harness", "jobs", "job1")
	require.NoError(t, os.MkdirAll(jobDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jobDir, "status.json"), []byte(`{"status":"running"}`), 0o644))

	c := NewCollector(runtimestate.New(), logRoot)
	c.collectHarness()

	require.Equal(t, float64(1), testutil.ToFloat64(HarnessJobsRunning))
	require.Equal(t, float64(0), testutil.ToFloat64(HarnessJobsFinished))
}
