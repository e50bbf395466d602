package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/compose"
	"github.com/lux-run/lux/pkg/shim"
)

var shimBinDir string

var shimCmd = &cobra.Command{
	Use:   "shim",
	Short: "manage the provider-binary launcher shims",
}

var shimInstallCmd = &cobra.Command{
	Use:   "install [provider...]",
	Short: "install launcher shims for the named providers (default: all configured)",
	RunE:  runShimInstall,
}

var shimUninstallCmd = &cobra.Command{
	Use:   "uninstall [provider...]",
	Short: "remove launcher shims for the named providers",
	RunE:  runShimUninstall,
}

var shimListCmd = &cobra.Command{
	Use:   "list",
	Short: "list installed/managed shim state",
	RunE:  runShimList,
}

var shimExecCmd = &cobra.Command{
	Use:                "exec <provider> -- [args...]",
	Short:              "invoked by an installed shim to launch a provider's TUI (internal)",
	Hidden:             true,
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE:               runShimExec,
}

func init() {
	shimCmd.PersistentFlags().StringVar(&shimBinDir, "bin-dir", defaultShimBinDir(), "directory to install shims into")
	shimCmd.AddCommand(shimInstallCmd, shimUninstallCmd, shimListCmd, shimExecCmd)
}

func defaultShimBinDir() string {
	home := os.Getenv("HOME")
	return filepath.Join(home, ".local", "bin")
}

func providerArgsOrDefault(ctx *cliContext, args []string) []string {
	if len(args) > 0 {
		return shim.NormalizeProviders(args)
	}
	names := make([]string, 0, len(ctx.Config.Providers))
	for name := range ctx.Config.Providers {
		names = append(names, name)
	}
	return shim.NormalizeProviders(names)
}

func runShimInstall(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	var results []*shim.InstallResult
	for _, provider := range providerArgsOrDefault(ctx, args) {
		res, err := shim.Install(shimBinDir, provider)
		if err != nil {
			return emitError(flags.jsonOutput, err, nil)
		}
		results = append(results, res)
	}
	return emitResult(flags.jsonOutput, map[string]any{"installed": results})
}

func runShimUninstall(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	type outcome struct {
		Provider string `json:"provider"`
		Removed  bool   `json:"removed"`
		Path     string `json:"path"`
	}
	var results []outcome
	for _, provider := range providerArgsOrDefault(ctx, args) {
		removed, path, err := shim.Uninstall(shimBinDir, provider)
		if err != nil {
			return emitError(flags.jsonOutput, err, nil)
		}
		results = append(results, outcome{Provider: provider, Removed: removed, Path: path})
	}
	return emitResult(flags.jsonOutput, map[string]any{"uninstalled": results})
}

func runShimList(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	entries := shim.List(shimBinDir, providerArgsOrDefault(ctx, args))
	return emitResult(flags.jsonOutput, map[string]any{"shims": entries})
}

// runShimExec is the entry point an installed shim script calls: `lux
// shim exec <provider> -- <args...>`. It ensures the supervisor and the
// named provider's plane are running, composes the provider's TUI command
// with the passthrough arguments, and emits the run-id and that command as
// its result. It does not start a container or launch the TUI itself.
func runShimExec(cmd *cobra.Command, args []string) error {
	provider := args[0]
	passthrough := args[1:]

	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	doc, err := ctx.requireConfig()
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	providerCfg, ok := doc.Providers[provider]
	if !ok {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: unknown provider %q", provider), nil)
	}

	deps := shimDeps(ctx)
	result, err := shim.PrepareExec(deps, provider, providerCfg.TUICommand, passthrough)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	return emitResult(flags.jsonOutput, map[string]any{
		"run_id":  result.RunID,
		"tui_cmd": result.TUICmd,
	})
}

func shimDeps(ctx *cliContext) shim.Deps {
	return shim.Deps{
		EnsureSupervisorRunning: func() error {
			return ensureSupervisorRunning(ctx)
		},
		EnsureProviderPlaneRunning: func(provider string) (string, error) {
			driver := compose.New(ctx.Config, ctx.BundleDir, ctx.logRoot(), ctx.workspaceRoot())
			runID, _, _, err := startProviderPlane(ctx, driver, provider, false)
			return runID, err
		},
	}
}
