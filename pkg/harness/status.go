package harness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// JobStatus is one job directory's parsed status.json, kept alongside the
// raw bytes so callers can pass the full document through untouched.
type JobStatus struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// SessionStatus mirrors JobStatus for a session directory.
type SessionStatus struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Summary is the aggregate /v1/session-job/status payload shape.
type Summary struct {
	SessionCount int `json:"session_count"`
	JobCount     int `json:"job_count"`
	JobsRunning  int `json:"jobs_running"`
	JobsFinished int `json:"jobs_finished"`
}

func sessionsDir(runRoot string) string { return filepath.Join(runRoot, "harness", "sessions") }
func jobsDir(runRoot string) string     { return filepath.Join(runRoot, "harness", "jobs") }

// ListSessionIDs returns the sorted set of session directory names under
// runRoot, or an empty slice if the directory doesn't exist yet.
func ListSessionIDs(runRoot string) []string {
	return listSubdirs(sessionsDir(runRoot))
}

// ListJobIDs returns the sorted set of job directory names under runRoot.
func ListJobIDs(runRoot string) []string {
	return listSubdirs(jobsDir(runRoot))
}

func listSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func readStatusFile(path string) (string, json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var probe struct {
		Status string `json:"status"`
	}
	// A malformed status.json yields an empty status rather than an
	// error — callers treat "unknown" the same as "not yet reported".
	_ = json.Unmarshal(data, &probe)
	return probe.Status, json.RawMessage(data), nil
}

// ReadJobStatus reads harness/jobs/<id>/status.json.
func ReadJobStatus(runRoot, id string) (*JobStatus, error) {
	status, raw, err := readStatusFile(filepath.Join(jobsDir(runRoot), id, "status.json"))
	if err != nil {
		return nil, err
	}
	return &JobStatus{ID: id, Status: status, Raw: raw}, nil
}

// ReadSessionStatus reads harness/sessions/<id>/status.json.
func ReadSessionStatus(runRoot, id string) (*SessionStatus, error) {
	status, raw, err := readStatusFile(filepath.Join(sessionsDir(runRoot), id, "status.json"))
	if err != nil {
		return nil, err
	}
	return &SessionStatus{ID: id, Status: status, Raw: raw}, nil
}

func isRunningState(status string) bool {
	return strings.EqualFold(status, "running") || strings.EqualFold(status, "submitted")
}

// Summarize counts sessions and jobs under runRoot, classifying each job
// as running/submitted vs. finished by its status.json's status field.
func Summarize(runRoot string) Summary {
	sessionIDs := ListSessionIDs(runRoot)
	jobIDs := ListJobIDs(runRoot)

	summary := Summary{SessionCount: len(sessionIDs), JobCount: len(jobIDs)}
	for _, id := range jobIDs {
		status, _, err := readStatusFile(filepath.Join(jobsDir(runRoot), id, "status.json"))
		if err != nil {
			continue
		}
		switch {
		case isRunningState(status):
			summary.JobsRunning++
		case status != "":
			summary.JobsFinished++
		}
	}
	return summary
}
