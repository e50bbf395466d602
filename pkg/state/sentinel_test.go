package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActiveRunSentinelRoundTrip(t *testing.T) {
	logRoot := t.TempDir()

	got, err := LoadActiveRun(logRoot)
	require.NoError(t, err)
	require.Nil(t, got)

	want := ActiveRunState{RunID: "lux__2026_07_31_10_00_00", StartedAt: "2026-07-31T10:00:00Z", WorkspaceRoot: "/home/alice/ws"}
	require.NoError(t, WriteActiveRun(logRoot, want))

	got, err = LoadActiveRun(logRoot)
	require.NoError(t, err)
	require.Equal(t, want, *got)

	require.NoError(t, ClearActiveRun(logRoot))
	got, err = LoadActiveRun(logRoot)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestActiveProviderSentinelRoundTrip(t *testing.T) {
	logRoot := t.TempDir()

	want := ActiveProviderState{Provider: "claude", AuthMode: "api_key", RunID: "lux__2026_07_31_10_00_00", StartedAt: "2026-07-31T10:05:00Z"}
	require.NoError(t, WriteActiveProvider(logRoot, want))

	got, err := LoadActiveProvider(logRoot)
	require.NoError(t, err)
	require.Equal(t, want, *got)

	require.NoError(t, ClearActiveProvider(logRoot))
	got, err = LoadActiveProvider(logRoot)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestActiveRunSentinelClearIdempotent(t *testing.T) {
	logRoot := t.TempDir()
	require.NoError(t, ClearActiveRun(logRoot))
	require.NoError(t, ClearActiveRun(logRoot))
}

func TestActiveRunPathIsDotfileUnderLogRoot(t *testing.T) {
	logRoot := t.TempDir()
	require.Equal(t, filepath.Join(logRoot, ".active_run.json"), activeRunPath(logRoot))
}
