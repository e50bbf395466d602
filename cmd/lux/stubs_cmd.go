package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// outOfScopeMsg is the fixed error text every stubbed subcommand returns
// (§1/§6): these verbs exist so --help resolves and scripts calling them
// get a structured failure instead of "unknown command", but none of
// their underlying logic (interactive wizard, release channel
// management, host cleanup) is implemented in this build.
const outOfScopeMsg = "out of scope for this build"

func stubRunE(cmd *cobra.Command, args []string) error {
	return emitError(flags.jsonOutput, fmt.Errorf(outOfScopeMsg), nil)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "interactively provision the local lux install (not implemented in this build)",
	RunE:  stubRunE,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "manage lux release channels (not implemented in this build)",
}

var updateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "check for a newer release (not implemented in this build)",
	RunE:  stubRunE,
}

var updateApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "apply a pending release update (not implemented in this build)",
	RunE:  stubRunE,
}

var updateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "roll back to the previous release (not implemented in this build)",
	RunE:  stubRunE,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "remove lux's local install and provisioned state (not implemented in this build)",
	RunE:  stubRunE,
}

func init() {
	updateCmd.AddCommand(updateCheckCmd, updateApplyCmd, updateRollbackCmd)
	updateCmd.RunE = stubRunE
}
