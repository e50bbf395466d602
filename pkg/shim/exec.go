package shim

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateExecArgs rejects any argument that is an absolute host path —
// v1 cannot map an arbitrary host path into the container namespace.
func ValidateExecArgs(args []string) error {
	for _, arg := range args {
		if filepath.IsAbs(arg) {
			return fmt.Errorf("shim: absolute host path arguments are unsupported: %s", arg)
		}
	}
	return nil
}

// StripLeadingSeparator drops a leading "--" some callers pass to mark
// the end of their own flags before the passthrough argv begins.
func StripLeadingSeparator(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}

// ShellSingleQuote wraps s in single quotes, escaping any embedded single
// quote the POSIX-portable way: close, escaped quote, reopen.
func ShellSingleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ComposeTUICommand appends each passthrough argument, single-quoted, to
// the provider's base tui command.
func ComposeTUICommand(base string, passthrough []string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, arg := range passthrough {
		b.WriteByte(' ')
		b.WriteString(ShellSingleQuote(arg))
	}
	return b.String()
}

// EnsureSupervisorFunc starts the supervisor if it isn't already running.
type EnsureSupervisorFunc func() error

// EnsureProviderPlaneFunc starts the named provider's plane if needed and
// returns the run-id it is now operating under.
type EnsureProviderPlaneFunc func(provider string) (runID string, err error)

// Deps decouples exec-time orchestration from the supervisor/compose
// packages, which own the actual start logic.
type Deps struct {
	EnsureSupervisorRunning    EnsureSupervisorFunc
	EnsureProviderPlaneRunning EnsureProviderPlaneFunc
}

// ExecResult is the information needed to actually run the one-shot
// harness container; compose argv construction and overlay generation
// happen in pkg/compose.
type ExecResult struct {
	RunID  string
	TUICmd string
}

// PrepareExec validates passthrough args, ensures the supervisor and the
// named provider's plane are running, and composes the tui command from
// the provider's base command and the single-quoted passthrough args. It
// starts no container itself.
func PrepareExec(deps Deps, provider, tuiBaseCmd string, rawArgs []string) (*ExecResult, error) {
	passthrough := StripLeadingSeparator(rawArgs)
	if err := ValidateExecArgs(passthrough); err != nil {
		return nil, err
	}

	if deps.EnsureSupervisorRunning != nil {
		if err := deps.EnsureSupervisorRunning(); err != nil {
			return nil, fmt.Errorf("shim: ensure supervisor running: %w", err)
		}
	}

	var runID string
	if deps.EnsureProviderPlaneRunning != nil {
		id, err := deps.EnsureProviderPlaneRunning(provider)
		if err != nil {
			return nil, fmt.Errorf("shim: ensure provider plane running: %w", err)
		}
		runID = id
	}

	return &ExecResult{
		RunID:  runID,
		TUICmd: ComposeTUICommand(tuiBaseCmd, passthrough),
	}, nil
}
