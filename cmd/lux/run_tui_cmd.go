package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/compose"
	"github.com/lux-run/lux/pkg/harness"
)

var (
	runProvider     string
	runPrompt       string
	runTimeoutSec   int
	runCaptureStdin bool
	tuiProvider     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "submit a non-interactive prompt to the harness and wait for its result",
	RunE:  runRunCmd,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "attach to a provider's interactive TUI inside the running agent container",
	RunE:  runTuiCmd,
}

func init() {
	runCmd.Flags().StringVar(&runProvider, "provider", "codex", "provider to run the prompt against")
	runCmd.Flags().StringVar(&runPrompt, "prompt", "", "prompt text to submit")
	runCmd.Flags().IntVar(&runTimeoutSec, "timeout-sec", 0, "abort the run after this many seconds (0: no timeout)")
	runCmd.Flags().BoolVar(&runCaptureStdin, "stdin", false, "read the prompt from stdin instead of --prompt")

	tuiCmd.Flags().StringVar(&tuiProvider, "provider", "codex", "provider whose TUI to attach to")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	if shouldRouteThroughRuntime("run") {
		if err := ensureSupervisorRunning(ctx); err != nil {
			return emitError(flags.jsonOutput, err, nil)
		}
		argv := append([]string{"run"}, os.Args[2:]...)
		statusCode, stdout, stderr, err := executeViaRuntime(ctx.socketPath(), argv)
		if err != nil {
			return emitError(flags.jsonOutput, err, map[string]any{"stdout": stdout, "stderr": stderr})
		}
		if stdout != "" {
			fmt.Print(stdout)
		}
		if statusCode != 0 {
			return silentError{fmt.Errorf("lux: run exited with status %d", statusCode)}
		}
		return nil
	}

	doc, err := ctx.requireConfig()
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	prompt := runPrompt
	if runCaptureStdin {
		data, err := readAllStdin()
		if err != nil {
			return emitError(flags.jsonOutput, err, nil)
		}
		prompt = data
	}
	if prompt == "" {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: run requires --prompt or --stdin"), nil)
	}

	token := doc.Harness.APIToken
	if token == "" {
		token = os.Getenv("HARNESS_API_TOKEN")
	}
	client := harness.NewClient(doc.Harness.APIHost, doc.Harness.APIPort, token)

	req := harness.RunRequest{Prompt: prompt, CaptureInput: runCaptureStdin, Cwd: ctx.workspaceRoot()}
	if runTimeoutSec > 0 {
		req.TimeoutSec = &runTimeoutSec
	}

	runCtx, cancel := requestContext(runTimeoutSec)
	defer cancel()

	result, err := client.Run(runCtx, req)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	return emitResult(flags.jsonOutput, map[string]any{
		"request_id":  result.RequestID,
		"status_code": result.StatusCode,
		"body":        string(result.Body),
	})
}

func requestContext(timeoutSec int) (context.Context, context.CancelFunc) {
	if timeoutSec <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
}

func readAllStdin() (string, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return string(buf), nil
}

// runTuiCmd is not a proxied verb (§4.5): the CLI still needs the
// supervisor and the provider's plane running, but the actual TUI
// attachment is an interactive `docker compose exec` this process hands
// its own stdio to directly, not something that can round-trip through
// the execute-proxy's buffered stdout/stderr.
func runTuiCmd(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	doc, err := ctx.requireConfig()
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	providerCfg, ok := doc.Providers[tuiProvider]
	if !ok {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: unknown provider %q", tuiProvider), nil)
	}

	if err := ensureSupervisorRunning(ctx); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	driver := compose.New(doc, ctx.BundleDir, ctx.logRoot(), ctx.workspaceRoot())
	if _, _, _, err := startProviderPlane(ctx, driver, tuiProvider, false); err != nil {
		return emitError(flags.jsonOutput, err, processErrorDetails(err))
	}

	execCmd := exec.Command("docker", "compose", "--env-file", ctx.EnvFile, "-p", doc.Docker.ProjectName, "exec", "agent", "sh", "-c", providerCfg.TUICommand)
	execCmd.Dir = ctx.BundleDir
	execCmd.Stdin = os.Stdin
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	if err := execCmd.Run(); err != nil {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: tui session exited: %w", err), nil)
	}
	return nil
}
