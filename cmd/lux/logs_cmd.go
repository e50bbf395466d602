package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/state"
)

var (
	logsFile   string
	logsRunID  string
	logsLatest bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "inspect collector/timeline log files for a run",
}

var logsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "report size/mtime for each pipeline log file",
	RunE:  runLogsStats,
}

var logsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "print the last N lines of a pipeline log file",
	RunE:  runLogsTail,
}

func init() {
	logsCmd.PersistentFlags().StringVar(&logsFile, "file", "filtered", `which file: "raw", "audit", or "filtered"`)
	logsCmd.PersistentFlags().StringVar(&logsRunID, "run-id", "", "run-id to inspect (default: the active run)")
	logsCmd.PersistentFlags().BoolVar(&logsLatest, "latest", true, "use the most recently started run when --run-id is not given")
	logsTailCmd.Flags().IntVar(&logsLines, "lines", 50, "number of trailing lines to print")

	logsCmd.AddCommand(logsStatsCmd, logsTailCmd)
}

// resolveLogsRunRoot picks the run-root logsTail/logsStats should read
// from: an explicit --run-id, else the active run, else (with --latest)
// the most recently created run under log_root.
func resolveLogsRunRoot(ctx *cliContext) (string, error) {
	if logsRunID != "" {
		return state.RunRoot(ctx.logRoot(), logsRunID), nil
	}

	active, err := state.LoadActiveRun(ctx.logRoot())
	if err != nil {
		return "", err
	}
	if active != nil {
		return state.RunRoot(ctx.logRoot(), active.RunID), nil
	}

	if !logsLatest {
		return "", fmt.Errorf("lux: no active run and --latest is false")
	}
	ids, err := state.ListRunIDs(ctx.logRoot())
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("lux: no runs found under %s", ctx.logRoot())
	}
	return state.RunRoot(ctx.logRoot(), ids[len(ids)-1]), nil
}

func logFilePath(runRoot, which string) (string, error) {
	switch which {
	case "raw":
		return filepath.Join(runRoot, "collector", "raw", "ebpf.jsonl"), nil
	case "audit":
		return filepath.Join(runRoot, "collector", "raw", "audit.log"), nil
	case "filtered":
		return filepath.Join(runRoot, "collector", "filtered", "filtered_timeline.jsonl"), nil
	default:
		return "", fmt.Errorf("lux: unknown --file %q (want raw, audit, or filtered)", which)
	}
}

func runLogsStats(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	runRoot, err := resolveLogsRunRoot(ctx)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	out := map[string]any{}
	for _, name := range []string{"raw", "audit", "filtered"} {
		path, _ := logFilePath(runRoot, name)
		info, statErr := os.Stat(path)
		if statErr != nil {
			out[name] = map[string]any{"present": false}
			continue
		}
		out[name] = map[string]any{"present": true, "size": info.Size(), "mtime": info.ModTime().UTC()}
	}
	return emitResult(flags.jsonOutput, map[string]any{"run_root": runRoot, "files": out})
}

func runLogsTail(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	runRoot, err := resolveLogsRunRoot(ctx)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	path, err := logFilePath(runRoot, logsFile)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	lines, err := tailLines(path, logsLines)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	return emitResult(flags.jsonOutput, map[string]any{"path": path, "lines": lines})
}

// tailLines reads the whole file and keeps the last n lines. Pipeline
// log files are rotated well before they'd make this expensive enough to
// warrant a seek-from-end reader.
func tailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lux: open %s: %w", path, err)
	}
	defer f.Close()

	var all []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		all = append(all, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lux: scan %s: %w", path, err)
	}

	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}
