package state

import (
	"fmt"
	"os"
	"time"
)

// ErrProviderMismatch is returned when a provider-plane request names a
// provider other than the one recorded in the active-provider sentinel.
type ErrProviderMismatch struct {
	Requested string
	Active    string
}

func (e *ErrProviderMismatch) Error() string {
	return fmt.Sprintf("provider mismatch: active provider is '%s', requested '%s'", e.Active, e.Requested)
}

// reconcileStaleActiveRun clears an active-run sentinel that points at a
// run-root that no longer exists (§4.4: "A stale active-run sentinel...
// is cleared before any Start transition").
func reconcileStaleActiveRun(logRoot string) (*ActiveRunState, error) {
	active, err := LoadActiveRun(logRoot)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, nil
	}
	if _, err := os.Stat(RunRoot(logRoot, active.RunID)); os.IsNotExist(err) {
		if err := ClearActiveRun(logRoot); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return active, nil
}

// StartCollector implements the collector-start transition action from
// §4.4: allocate a run-id, create the run-root, write the active-run
// sentinel atomically, then invoke invoke (normally C7). On invoke's
// failure the sentinel is removed and the run-root is left for
// inspection. providerRunning true is a programming error: the caller
// must not reach here while any provider plane is Running.
func StartCollector(logRoot, workspaceRoot string, providerRunning bool, now time.Time, invoke func(runID, runRoot string) error) (string, error) {
	if providerRunning {
		return "", fmt.Errorf("state: collector plane cannot start while a provider plane is running")
	}

	if _, err := reconcileStaleActiveRun(logRoot); err != nil {
		return "", err
	}

	runID := NewRunID(now)
	runRoot := RunRoot(logRoot, runID)
	if err := CreateRunRootLayout(runRoot); err != nil {
		return "", err
	}

	sentinel := ActiveRunState{
		RunID:         runID,
		StartedAt:     now.UTC().Format(time.RFC3339),
		WorkspaceRoot: workspaceRoot,
	}
	if err := WriteActiveRun(logRoot, sentinel); err != nil {
		return "", err
	}

	if err := invoke(runID, runRoot); err != nil {
		if clearErr := ClearActiveRun(logRoot); clearErr != nil {
			return "", fmt.Errorf("state: collector start failed (%w) and sentinel cleanup also failed: %v", err, clearErr)
		}
		return "", fmt.Errorf("state: collector start failed: %w", err)
	}

	return runID, nil
}

// StopCollector invokes stop (normally C7) and removes the active-run
// sentinel only on its success.
func StopCollector(logRoot string, invoke func() error) error {
	if err := invoke(); err != nil {
		return fmt.Errorf("state: collector stop failed: %w", err)
	}
	return ClearActiveRun(logRoot)
}

// RequireProviderMatch enforces the provider-mismatch invariant: any
// provider-plane request must name the provider already recorded in the
// active-provider sentinel, if one exists.
func RequireProviderMatch(logRoot, provider string) error {
	active, err := LoadActiveProvider(logRoot)
	if err != nil {
		return err
	}
	if active != nil && active.Provider != provider {
		return &ErrProviderMismatch{Requested: provider, Active: active.Provider}
	}
	return nil
}

// StartProvider implements the provider-start transition action: it
// requires a Running collector and a valid, non-stale active-run
// sentinel, enforces the provider-mismatch invariant, invokes invoke
// (normally C7 with a per-provider overlay), and on success writes the
// active-provider sentinel.
func StartProvider(logRoot, provider, authMode string, collectorRunning bool, now time.Time, invoke func(active ActiveRunState) error) error {
	if !collectorRunning {
		return fmt.Errorf("state: provider plane cannot start without a running collector")
	}

	active, err := reconcileStaleActiveRun(logRoot)
	if err != nil {
		return err
	}
	if active == nil {
		return fmt.Errorf("state: provider plane cannot start without a valid active-run sentinel")
	}

	if err := RequireProviderMatch(logRoot, provider); err != nil {
		return err
	}

	if err := invoke(*active); err != nil {
		return fmt.Errorf("state: provider start failed: %w", err)
	}

	return WriteActiveProvider(logRoot, ActiveProviderState{
		Provider:  provider,
		AuthMode:  authMode,
		RunID:     active.RunID,
		StartedAt: now.UTC().Format(time.RFC3339),
	})
}

// StopProvider invokes invoke (normally C7) and clears the
// active-provider sentinel only on success.
func StopProvider(logRoot string, invoke func() error) error {
	if err := invoke(); err != nil {
		return fmt.Errorf("state: provider stop failed: %w", err)
	}
	return ClearActiveProvider(logRoot)
}

// ValidateWorkspaceOverride rejects a --workspace override that disagrees
// with the active run's recorded workspace (§4.4).
func ValidateWorkspaceOverride(active ActiveRunState, canonicalizedOverride string) error {
	if active.WorkspaceRoot == "" {
		return nil
	}
	if active.WorkspaceRoot != canonicalizedOverride {
		return fmt.Errorf("state: workspace override %q disagrees with active run's workspace %q", canonicalizedOverride, active.WorkspaceRoot)
	}
	return nil
}
