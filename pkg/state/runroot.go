package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const runIDLayout = "2006_01_02_15_04_05"

// NewRunID allocates a fresh run-id of the form lux__YYYY_MM_DD_HH_MM_SS.
func NewRunID(now time.Time) string {
	return "lux__" + now.UTC().Format(runIDLayout)
}

// RunRoot returns the run-root directory for runID under logRoot.
func RunRoot(logRoot, runID string) string {
	return filepath.Join(logRoot, runID)
}

// runRootDirs are the directories created under a run-root on collector
// start (§3, §6): raw/filtered collector output plus harness session and
// job state.
var runRootDirs = []string{
	filepath.Join("collector", "raw"),
	filepath.Join("collector", "filtered"),
	filepath.Join("harness", "sessions"),
	filepath.Join("harness", "jobs"),
}

// CreateRunRootLayout creates runRoot and its fixed subdirectory layout.
func CreateRunRootLayout(runRoot string) error {
	for _, rel := range runRootDirs {
		dir := filepath.Join(runRoot, rel)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("state: create run-root directory %s: %w", dir, err)
		}
	}
	return nil
}

// ListRunIDs returns the sorted run-ids present under logRoot, identified
// by the lux__ directory-name prefix.
func ListRunIDs(logRoot string) ([]string, error) {
	entries, err := os.ReadDir(logRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("state: list run-ids under %s: %w", logRoot, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > 5 && e.Name()[:5] == "lux__" {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
