package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/compose"
	"github.com/lux-run/lux/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "inspect and manage lux's config.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "write a fresh config.yaml if one does not already exist",
	RunE:  runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "open config.yaml in $EDITOR",
	RunE:  runConfigEdit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "load and validate config.yaml against the path-invariant battery",
	RunE:  runConfigValidate,
}

var configApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "validate config.yaml and write compose.env from it if it does not exist yet",
	RunE:  runConfigApply,
}

func init() {
	configCmd.AddCommand(configInitCmd, configEditCmd, configValidateCmd, configApplyCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, true)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	if _, err := os.Stat(ctx.ConfigPath); err == nil {
		return emitResult(flags.jsonOutput, map[string]any{
			"path":    ctx.ConfigPath,
			"created": false,
			"message": "config.yaml already exists; leaving it untouched",
		})
	}

	doc := config.Default(ctx.Home)
	raw, err := config.Marshal(doc)
	if err != nil {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: marshal default config: %w", err), nil)
	}

	if err := os.MkdirAll(resolveConfigDir(ctx.Home), 0o755); err != nil {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: create config dir: %w", err), nil)
	}
	if err := config.AtomicWrite(ctx.ConfigPath, raw, config.DefaultConfigMode); err != nil {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: write config.yaml: %w", err), nil)
	}

	return emitResult(flags.jsonOutput, map[string]any{
		"path":    ctx.ConfigPath,
		"created": true,
	})
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, true)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	edit := exec.Command(editor, ctx.ConfigPath)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return emitError(flags.jsonOutput, fmt.Errorf("lux: run %s: %w", editor, err), nil)
	}

	return emitResult(flags.jsonOutput, map[string]any{"path": ctx.ConfigPath, "edited": true})
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	if _, err := ctx.requireConfig(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	return emitResult(flags.jsonOutput, map[string]any{"path": ctx.ConfigPath, "valid": true})
}

func runConfigApply(cmd *cobra.Command, args []string) error {
	ctx, err := buildContext(flags, false)
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}
	doc, err := ctx.requireConfig()
	if err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	driver := compose.New(doc, ctx.BundleDir, ctx.logRoot(), ctx.workspaceRoot())
	if err := driver.EnsureEnvFile(); err != nil {
		return emitError(flags.jsonOutput, err, nil)
	}

	return emitResult(flags.jsonOutput, map[string]any{
		"path":     ctx.ConfigPath,
		"env_file": driver.EnvFile,
		"applied":  true,
	})
}
