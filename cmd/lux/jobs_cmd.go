package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/harness"
	"github.com/lux-run/lux/pkg/state"
)

var jobsKind string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "inspect harness job/session state for the active run",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "list job or session ids for the active run",
	RunE:  runJobsList,
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "print one job or session's status.json",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsGet,
}

func init() {
	jobsCmd.PersistentFlags().StringVar(&jobsKind, "kind", "job", `"job" or "session"`)
	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd)
}

func activeRunRoot(ctx *cliContext) (string, error) {
	active, err := state.LoadActiveRun(ctx.logRoot())
	if err != nil {
		return "", err
	}
	if active == nil {
		return "", fmt.Errorf("lux: no active run")
	}
	return state.RunRoot(ctx.logRoot(), active.RunID), nil
}

func runJobsList(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	runRoot, err := activeRunRoot(ctx)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	var ids []string
	switch jobsKind {
	case "session":
		ids = harness.ListSessionIDs(runRoot)
	default:
		ids = harness.ListJobIDs(runRoot)
	}
	return emitResult(flags.jsonOutput, map[string]any{"kind": jobsKind, "ids": ids})
}

func runJobsGet(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	runRoot, err := activeRunRoot(ctx)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	id := args[0]
	if jobsKind == "session" {
		status, err := harness.ReadSessionStatus(runRoot, id)
		if err != nil {
			return emitError(flags.jsonOutput, err, nil)
		}
		return emitResult(flags.jsonOutput, status)
	}

	status, err := harness.ReadJobStatus(runRoot, id)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	return emitResult(flags.jsonOutput, status)
}
