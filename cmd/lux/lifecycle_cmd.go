package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/compose"
	"github.com/lux-run/lux/pkg/log"
	"github.com/lux-run/lux/pkg/state"
)

var (
	upProvider      string
	upCollectorOnly bool
	upWait          bool
	upPull          bool

	downProvider      string
	downCollectorOnly bool

	uiProvider string
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "bring the collector and/or a provider's plane up",
	RunE:  runLifecycle("up"),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "tear the collector and/or a provider's plane down",
	RunE:  runLifecycle("down"),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "report the sandbox stack's current status",
	RunE:  runLifecycle("status"),
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "bring the sandbox stack up including the UI service",
	RunE:  runLifecycle("ui"),
}

func init() {
	upCmd.Flags().StringVar(&upProvider, "provider", "", "provider to bring up (must exist in config.yaml providers)")
	upCmd.Flags().BoolVar(&upCollectorOnly, "collector-only", false, "start only the collector plane, without a provider")
	upCmd.Flags().BoolVar(&upWait, "wait", false, "block until the started services report healthy before returning")
	upCmd.Flags().BoolVar(&upPull, "pull", false, "pull images before starting")
	upCmd.MarkFlagsMutuallyExclusive("provider", "collector-only")

	downCmd.Flags().StringVar(&downProvider, "provider", "", "provider whose plane to stop; must match the active provider")
	downCmd.Flags().BoolVar(&downCollectorOnly, "collector-only", false, "stop only the collector plane")
	downCmd.MarkFlagsMutuallyExclusive("provider", "collector-only")

	uiCmd.Flags().StringVar(&uiProvider, "provider", "codex", "provider to bring up alongside the UI")
}

// runLifecycle returns a RunE that either proxies verb through the
// running supervisor or, when bypassed, executes it directly in this
// process (§4.5's command-proxy routing).
func runLifecycle(verb string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, err := buildContext(flags, false)
		if err != nil {
			return emitError(flags.jsonOutput, err, nil)
		}

		if shouldRouteThroughRuntime(verb) {
			if err := ensureSupervisorRunning(ctx); err != nil {
				return emitError(flags.jsonOutput, err, nil)
			}

			argv := append([]string{verb}, os.Args[2:]...)
			statusCode, stdout, stderr, err := executeViaRuntime(ctx.socketPath(), argv)
			if err != nil {
				return emitError(flags.jsonOutput, err, map[string]any{"stdout": stdout, "stderr": stderr})
			}
			if stdout != "" {
				fmt.Print(stdout)
			}
			if stderr != "" {
				fmt.Fprint(os.Stderr, stderr)
			}
			if statusCode != 0 {
				return silentError{fmt.Errorf("lux: %s exited with status %d", verb, statusCode)}
			}
			return nil
		}

		return runLifecycleLocal(verb, ctx)
	}
}

func runLifecycleLocal(verb string, ctx *cliContext) error {
	doc, err := ctx.requireConfig()
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	driver := compose.New(doc, ctx.BundleDir, ctx.logRoot(), ctx.workspaceRoot())
	if len(ctx.ComposeFiles) > 0 {
		driver.ComposeFileOverrides = ctx.ComposeFiles
	}

	switch verb {
	case "up":
		return doUp(ctx, driver)
	case "ui":
		return doUI(ctx, driver)
	case "down":
		return doDown(ctx, driver)
	case "status":
		return doStatus(ctx, driver)
	default:
		return emitError(flags.jsonOutput, fmt.Errorf("lux: unknown lifecycle verb %q", verb), nil)
	}
}

// lifecycleTarget is the resolved shape of an `up`/`down` invocation: either
// the collector plane alone, or a named provider's plane (§4.4, §8).
type lifecycleTarget struct {
	collectorOnly bool
	provider      string
}

// resolveLifecycleTarget mirrors the original CLI's flag resolution: exactly
// one of --collector-only or --provider must be given.
func resolveLifecycleTarget(provider string, collectorOnly bool) (lifecycleTarget, error) {
	if collectorOnly {
		return lifecycleTarget{collectorOnly: true}, nil
	}
	if provider == "" {
		return lifecycleTarget{}, fmt.Errorf("lux: requires --provider <name> or --collector-only")
	}
	return lifecycleTarget{provider: provider}, nil
}

func doUp(ctx *cliContext, driver *compose.Driver) error {
	target, err := resolveLifecycleTarget(upProvider, upCollectorOnly)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	if target.collectorOnly {
		runID, out, err := startCollectorOnly(ctx, driver)
		if err != nil {
			return emitError(flags.jsonOutput, err, processErrorDetails(err))
		}
		statusCode := 0
		if out != nil {
			statusCode = out.StatusCode
		}
		return emitResult(flags.jsonOutput, map[string]any{
			"run_id":            runID,
			"collector_only":    true,
			"compose_exit_code": statusCode,
		})
	}

	runID, out, overlay, err := startProviderPlane(ctx, driver, target.provider, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, processErrorDetails(err))
	}
	statusCode := 0
	if out != nil {
		statusCode = out.StatusCode
	}
	return emitResult(flags.jsonOutput, map[string]any{
		"run_id":            runID,
		"provider":          target.provider,
		"overlay_warnings":  overlay.Warnings,
		"compose_exit_code": statusCode,
	})
}

func doUI(ctx *cliContext, driver *compose.Driver) error {
	runID, out, overlay, err := startProviderPlane(ctx, driver, uiProvider, true)
	if err != nil {
		return emitError(flags.jsonOutput, err, processErrorDetails(err))
	}
	statusCode := 0
	if out != nil {
		statusCode = out.StatusCode
	}
	return emitResult(flags.jsonOutput, map[string]any{
		"run_id":            runID,
		"provider":          uiProvider,
		"ui":                true,
		"overlay_warnings":  overlay.Warnings,
		"compose_exit_code": statusCode,
	})
}

// startCollectorOnly implements the C4 collector-start transition: it is
// the §8 scenario-1 entry point (`up --collector-only [--wait]`) and is also
// what a provider's auto-start path recurses into.
func startCollectorOnly(ctx *cliContext, driver *compose.Driver) (string, *compose.CommandOutput, error) {
	runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	providerRunning, err := driver.ProviderPlaneRunning(runCtx, nil)
	if err != nil {
		return "", nil, err
	}

	var composeOut *compose.CommandOutput
	runID, err := state.StartCollector(ctx.logRoot(), ctx.workspaceRoot(), providerRunning, time.Now(), func(_, _ string) error {
		out, upErr := driver.Up(runCtx, false, nil, []string{"collector"}, nil)
		composeOut = out
		if upErr != nil {
			return upErr
		}
		if upWait {
			if _, err := driver.RunningServices(runCtx, []string{"collector"}, nil); err != nil {
				return err
			}
		}
		return nil
	})
	return runID, composeOut, err
}

// startProviderPlane implements the C4 provider-start transition, including
// the collector.auto_start recursive bring-up (§4.4, §8 scenario 2) and the
// provider-mismatch check (§8 scenario 3).
func startProviderPlane(ctx *cliContext, driver *compose.Driver, providerName string, ui bool) (string, *compose.CommandOutput, *compose.Overlay, error) {
	provider, ok := ctx.Config.Providers[providerName]
	if !ok {
		return "", nil, nil, fmt.Errorf("lux: unknown provider %q", providerName)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if ctx.Config.Collector.AutoStart {
		collectorValid, err := collectorIsRunningAndValid(ctx, driver, runCtx)
		if err != nil {
			return "", nil, nil, err
		}
		if !collectorValid {
			if _, _, err := startCollectorOnly(ctx, driver); err != nil {
				return "", nil, nil, fmt.Errorf("lux: auto-starting collector: %w", err)
			}
		}
	}

	collectorRunning, err := driver.CollectorRunning(runCtx, nil)
	if err != nil {
		return "", nil, nil, err
	}
	if !collectorRunning {
		return "", nil, nil, fmt.Errorf("lux: collector is not running; start collector first with `lux up --collector-only`")
	}

	runtimeDir := ctx.runtimeDir()
	overlay, err := compose.GenerateProviderOverlay(runtimeDir, providerName, provider, ctx.Home, "")
	if err != nil {
		return "", nil, nil, err
	}

	providerLogger := log.WithProvider(providerName)

	services := []string{"agent", "harness"}
	if ui {
		services = append(services, "ui")
	}

	var composeOut *compose.CommandOutput
	err = state.StartProvider(ctx.logRoot(), providerName, string(provider.AuthMode), collectorRunning, time.Now(), func(active state.ActiveRunState) error {
		out, upErr := driver.Up(runCtx, ui, []string{overlay.OverrideFile}, services, nil)
		composeOut = out
		return upErr
	})
	if err != nil {
		providerLogger.Warn().Err(err).Msg("lux: provider plane start failed")
		return "", nil, nil, err
	}
	providerLogger.Info().Msg("lux: provider plane started")

	active, err := state.LoadActiveRun(ctx.logRoot())
	runID := ""
	if err == nil && active != nil {
		runID = active.RunID
	}
	return runID, composeOut, overlay, nil
}

// collectorIsRunningAndValid reports whether the collector plane is
// actually running AND the active-run sentinel still points at a run-root
// that exists, the condition `collector.auto_start` gates on.
func collectorIsRunningAndValid(ctx *cliContext, driver *compose.Driver, runCtx context.Context) (bool, error) {
	running, err := driver.CollectorRunning(runCtx, nil)
	if err != nil || !running {
		return false, err
	}
	active, err := state.LoadActiveRun(ctx.logRoot())
	if err != nil {
		return false, err
	}
	if active == nil {
		return false, nil
	}
	if _, err := os.Stat(state.RunRoot(ctx.logRoot(), active.RunID)); err != nil {
		return false, nil
	}
	return true, nil
}

func doDown(ctx *cliContext, driver *compose.Driver) error {
	target, err := resolveLifecycleTarget(downProvider, downCollectorOnly)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if target.collectorOnly {
		var composeOut *compose.CommandOutput
		err := state.StopCollector(ctx.logRoot(), func() error {
			out, downErr := driver.Down(runCtx, []string{"collector"}, nil)
			composeOut = out
			return downErr
		})
		if err != nil {
			return emitError(flags.jsonOutput, err, processErrorDetails(err))
		}
		statusCode := 0
		if composeOut != nil {
			statusCode = composeOut.StatusCode
		}
		return emitResult(flags.jsonOutput, map[string]any{
			"collector_only":    true,
			"compose_exit_code": statusCode,
		})
	}

	if err := state.RequireProviderMatch(ctx.logRoot(), target.provider); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	providerLogger := log.WithProvider(target.provider)

	var composeOut *compose.CommandOutput
	err = state.StopProvider(ctx.logRoot(), func() error {
		out, downErr := driver.Down(runCtx, []string{"agent", "harness"}, nil)
		composeOut = out
		return downErr
	})
	if err != nil {
		providerLogger.Warn().Err(err).Msg("lux: provider plane stop failed")
		return emitError(flags.jsonOutput, err, processErrorDetails(err))
	}
	providerLogger.Info().Msg("lux: provider plane stopped")
	statusCode := 0
	if composeOut != nil {
		statusCode = composeOut.StatusCode
	}
	return emitResult(flags.jsonOutput, map[string]any{
		"provider":          target.provider,
		"compose_exit_code": statusCode,
	})
}

func doStatus(ctx *cliContext, driver *compose.Driver) error {
	runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := driver.Status(runCtx, nil)
	if err != nil {
		return emitError(flags.jsonOutput, err, processErrorDetails(err))
	}

	active, err := state.LoadActiveRun(ctx.logRoot())
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	activeProvider, err := state.LoadActiveProvider(ctx.logRoot())
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	collectorRunning, err := driver.CollectorRunning(runCtx, nil)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	providerRunning, err := driver.ProviderPlaneRunning(runCtx, nil)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	return emitResult(flags.jsonOutput, map[string]any{
		"active_run":        active,
		"active_provider":   activeProvider,
		"collector_running": collectorRunning,
		"provider_running":  providerRunning,
		"compose_ps":        string(out.Stdout),
	})
}

// processErrorDetails extracts the structured error_details payload a
// compose.ProcessError carries, or nil for any other error kind.
func processErrorDetails(err error) any {
	if pe, ok := err.(*compose.ProcessError); ok {
		return pe.Details
	}
	return nil
}
