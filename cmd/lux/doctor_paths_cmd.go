package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/config"
	"github.com/lux-run/lux/pkg/doctor"
)

var errChecksFailed = errors.New("one or more readiness checks failed")

var doctorStrict bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "run the readiness check battery (§4.9)",
	RunE:  runDoctor,
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "print the resolved path/env configuration this invocation would use",
	RunE:  runPaths,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "also fail on strict_fail warnings")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	doc, err := ctx.requireConfig()
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	composeFiles := ctx.ComposeFiles
	if len(composeFiles) == 0 {
		composeFiles = []string{
			filepath.Join(ctx.BundleDir, "compose.yml"),
			filepath.Join(ctx.BundleDir, "compose.ui.yml"),
		}
	}

	summary := doctor.Evaluate(doctor.Deps{Config: doc, ComposeFiles: composeFiles}, doctorStrict)

	if !summary.OK {
		return emitError(flags.jsonOutput, errChecksFailed, map[string]any{"checks": summary.Checks})
	}
	return emitResult(flags.jsonOutput, map[string]any{"ok": summary.OK, "checks": summary.Checks})
}

func runPaths(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, true)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	result := map[string]any{
		"home":        ctx.Home,
		"config_path": ctx.ConfigPath,
		"config_dir":  resolveConfigDir(ctx.Home),
		"env_file":    ctx.EnvFile,
		"bundle_dir":  ctx.BundleDir,
		"runtime_dir": ctx.runtimeDir(),
		"socket_path": ctx.socketPath(),
		"pid_path":    ctx.pidPath(),
	}
	if doc, loadErr := config.Load(ctx.ConfigPath, ctx.Home); loadErr == nil {
		result["log_root"] = doc.Paths.LogRoot
		result["workspace_root"] = doc.Paths.WorkspaceRoot
	}
	return emitResult(flags.jsonOutput, result)
}
