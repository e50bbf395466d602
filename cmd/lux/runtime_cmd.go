package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/activity"
	"github.com/lux-run/lux/pkg/compose"
	"github.com/lux-run/lux/pkg/log"
	"github.com/lux-run/lux/pkg/rpcserver"
	"github.com/lux-run/lux/pkg/runtimestate"
	"github.com/lux-run/lux/pkg/scheduler"
	"github.com/lux-run/lux/pkg/state"
)

var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "manage the supervisor daemon backing the proxied lifecycle commands",
}

var runtimeUpCmd = &cobra.Command{
	Use:   "up",
	Short: "start the supervisor daemon if it is not already running",
	RunE:  runRuntimeUp,
}

var runtimeDownCmd = &cobra.Command{
	Use:   "down",
	Short: "ask the running supervisor daemon to shut down",
	RunE:  runRuntimeDown,
}

var runtimeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "report whether the supervisor daemon is reachable",
	RunE:  runRuntimeStatus,
}

var runtimeServeCmd = &cobra.Command{
	Use:    "serve",
	Short:  "run the supervisor daemon in the foreground (internal)",
	Hidden: true,
	RunE:   runRuntimeServe,
}

func init() {
	runtimeCmd.AddCommand(runtimeUpCmd, runtimeDownCmd, runtimeStatusCmd, runtimeServeCmd)
}

func runRuntimeUp(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if err := ensureSupervisorRunning(ctx); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	return emitResult(flags.jsonOutput, map[string]any{"socket_path": ctx.socketPath(), "running": true})
}

func runRuntimeDown(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	socketPath := ctx.socketPath()
	if !runtimePing(socketPath) {
		return emitResult(flags.jsonOutput, map[string]any{"running": false, "message": "supervisor was not running"})
	}

	status, _, err := runtimeControlPlaneRequest(socketPath, "POST", "/v1/runtime/down", []byte("{}"))
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if status != 200 {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: runtime down returned status %d", status), nil)
	}

	return emitResult(flags.jsonOutput, map[string]any{"running": false, "stopped": true})
}

func runRuntimeStatus(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	socketPath := ctx.socketPath()
	if !runtimePing(socketPath) {
		return emitResult(flags.jsonOutput, map[string]any{"running": false, "socket_path": socketPath})
	}

	_, body, err := runtimeControlPlaneRequest(socketPath, "GET", "/v1/stack/status", nil)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	parsed["running"] = true
	parsed["socket_path"] = socketPath
	return emitResult(flags.jsonOutput, parsed)
}

// runRuntimeServe runs the supervisor daemon in the foreground: the unix
// socket RPC server (C5), the 30s scheduler (C6), the bbolt-backed
// activity store, and a signal handler that performs an orderly shutdown.
// The running CLI process re-execs itself with LUX_RUNTIME_BYPASS=1 to
// service each /v1/execute request.
func runRuntimeServe(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	doc, err := ctx.requireConfig()
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	logger := log.WithComponent("supervisor")

	runtimeDir := ctx.runtimeDir()
	if err := os.MkdirAll(runtimeDir, 0o770); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	store, err := activity.Open(runtimeDir)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	defer store.Close()

	rtState := runtimestate.New()
	if lastActivity, err := store.LastProviderActivity(); err == nil && !lastActivity.IsZero() {
		rtState.TouchProviderActivity(lastActivity)
	}

	driver := compose.New(doc, ctx.BundleDir, ctx.logRoot(), ctx.workspaceRoot())
	if len(ctx.ComposeFiles) > 0 {
		driver.ComposeFileOverrides = ctx.ComposeFiles
	}

	collectorStatus := collectorStatusFunc(driver)
	providerStatus := providerStatusFunc(ctx, driver)

	server := rpcserver.New(rpcserver.Deps{
		SocketPath:      ctx.socketPath(),
		PIDPath:         ctx.pidPath(),
		SocketGID:       ctx.socketGID(),
		Config:          doc,
		LogRoot:         ctx.logRoot(),
		State:           rtState,
		CollectorStatus: collectorStatus,
		ProviderStatus:  providerStatus,
		Execute:         reexecArgv,
		Logger:          logger,
	})
	if err := server.Start(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	defer server.Stop()

	sched := scheduler.New(scheduler.Deps{
		Config:           doc,
		LogRoot:          ctx.logRoot(),
		State:            rtState,
		Activity:         store,
		CollectorRunning: asPlaneStatusFunc(collectorStatus),
		ProviderRunning:  asPlaneStatusFunc(providerStatus),
		StopCollectorOnly: func() error {
			return state.StopCollector(ctx.logRoot(), func() error {
				_, err := driver.Down(context.Background(), []string{"collector"}, nil)
				return err
			})
		},
		StopCollectorForCutover: func() error {
			return state.StopCollector(ctx.logRoot(), func() error {
				_, err := driver.Down(context.Background(), []string{"collector"}, nil)
				return err
			})
		},
		StartCollectorForCutover: func() error {
			_, err := state.StartCollector(ctx.logRoot(), ctx.workspaceRoot(), false, time.Now(), func(runID, runRoot string) error {
				_, upErr := driver.Up(context.Background(), false, nil, []string{"collector"}, nil)
				return upErr
			})
			return err
		},
		JournalPath: ctx.journalPath(),
	})
	sched.Start()
	defer sched.Stop()

	logger.Info().Str("socket_path", ctx.socketPath()).Msg("supervisor: listening")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			logger.Info().Msg("supervisor: received shutdown signal")
			return nil
		case <-time.After(time.Second):
			if rtState.Shutdown() {
				logger.Info().Msg("supervisor: shutdown requested via runtime down")
				return nil
			}
		}
	}
}

// collectorStatusFunc adapts driver.CollectorRunning into the
// rpcserver.StatusFunc shape used by the /v1/stack/status endpoint.
func collectorStatusFunc(driver *compose.Driver) rpcserver.StatusFunc {
	return func() (bool, string, error) {
		running, err := driver.CollectorRunning(context.Background(), nil)
		return running, "", err
	}
}

// providerStatusFunc adapts driver.ProviderPlaneRunning, reporting the
// active provider's name as detail when one is running.
func providerStatusFunc(ctx *cliContext, driver *compose.Driver) rpcserver.StatusFunc {
	return func() (bool, string, error) {
		running, err := driver.ProviderPlaneRunning(context.Background(), nil)
		if err != nil || !running {
			return running, "", err
		}
		active, err := state.LoadActiveProvider(ctx.logRoot())
		if err != nil || active == nil {
			return running, "", nil
		}
		return running, active.Provider, nil
	}
}

func asPlaneStatusFunc(f rpcserver.StatusFunc) scheduler.PlaneStatusFunc {
	return func() (bool, error) {
		running, _, err := f()
		return running, err
	}
}
