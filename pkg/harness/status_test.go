package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeStatus(t *testing.T, runRoot, kind, id, body string) {
	t.Helper()
	dir := filepath.Join(runRoot, "harness", kind, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status.json"), []byte(body), 0o644))
}

func TestListSessionIDsSortedAndEmpty(t *testing.T) {
	runRoot := t.TempDir()
	require.Empty(t, ListSessionIDs(runRoot))

	writeStatus(t, runRoot, "sessions", "s2", `{"status":"running"}`)
	writeStatus(t, runRoot, "sessions", "s1", `{"status":"running"}`)

	require.Equal(t, []string{"s1", "s2"}, ListSessionIDs(runRoot))
}

func TestReadJobStatusParsesStatusField(t *testing.T) {
	runRoot := t.TempDir()
	writeStatus(t, runRoot, "jobs", "job1", `{"status":"finished","exit_code":0}`)

	job, err := ReadJobStatus(runRoot, "job1")
	require.NoError(t, err)
	require.Equal(t, "finished", job.Status)
	require.Contains(t, string(job.Raw), "exit_code")
}

func TestReadJobStatusMissingFileErrors(t *testing.T) {
	runRoot := t.TempDir()
	_, err := ReadJobStatus(runRoot, "nope")
	require.Error(t, err)
}

func TestReadJobStatusMalformedYieldsEmptyStatusNoError(t *testing.T) {
	runRoot := t.TempDir()
	writeStatus(t, runRoot, "jobs", "job1", `not json at all`)

	job, err := ReadJobStatus(runRoot, "job1")
	require.NoError(t, err)
	require.Empty(t, job.Status)
}

func TestSummarizeCountsRunningAndFinished(t *testing.T) {
	runRoot := t.TempDir()
	writeStatus(t, runRoot, "sessions", "s1", `{"status":"running"}`)
	writeStatus(t, runRoot, "jobs", "j1", `{"status":"running"}`)
	writeStatus(t, runRoot, "jobs", "j2", `{"status":"submitted"}`)
	writeStatus(t, runRoot, "jobs", "j3", `{"status":"finished"}`)
	writeStatus(t, runRoot, "jobs", "j4", `{"status":""}`)

	summary := Summarize(runRoot)
	require.Equal(t, 1, summary.SessionCount)
	require.Equal(t, 4, summary.JobCount)
	require.Equal(t, 2, summary.JobsRunning)
	require.Equal(t, 1, summary.JobsFinished)
}

func TestSummarizeOnMissingRunRootIsZero(t *testing.T) {
	summary := Summarize(filepath.Join(t.TempDir(), "nonexistent"))
	require.Equal(t, Summary{}, summary)
}
