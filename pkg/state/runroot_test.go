package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRunIDFormat(t *testing.T) {
	now := time.Date(2026, 7, 31, 9, 5, 3, 0, time.UTC)
	require.Equal(t, "lux__2026_07_31_09_05_03", NewRunID(now))
}

func TestCreateRunRootLayout(t *testing.T) {
	logRoot := t.TempDir()
	runRoot := RunRoot(logRoot, "lux__2026_07_31_09_05_03")

	require.NoError(t, CreateRunRootLayout(runRoot))

	for _, rel := range []string{
		filepath.Join("collector", "raw"),
		filepath.Join("collector", "filtered"),
		filepath.Join("harness", "sessions"),
		filepath.Join("harness", "jobs"),
	} {
		info, err := os.Stat(filepath.Join(runRoot, rel))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestListRunIDsSortedAndFiltered(t *testing.T) {
	logRoot := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(logRoot, "lux__2026_07_31_09_00_00"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(logRoot, "lux__2026_01_01_00_00_00"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(logRoot, "not-a-run"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logRoot, ".active_run.json"), []byte("{}"), 0o644))

	ids, err := ListRunIDs(logRoot)
	require.NoError(t, err)
	require.Equal(t, []string{"lux__2026_01_01_00_00_00", "lux__2026_07_31_09_00_00"}, ids)
}

func TestListRunIDsMissingLogRoot(t *testing.T) {
	ids, err := ListRunIDs(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	require.Nil(t, ids)
}
