package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/lux-run/lux/pkg/config"
)

// cliContext is the resolved set of paths/flags every subcommand needs,
// built by buildContext at the start of each subcommand's RunE (§6 env
// var table).
type cliContext struct {
	Home          string
	ConfigPath    string
	EnvFile       string
	BundleDir     string
	ComposeFiles  []string
	JSON          bool
	Config        *config.Document
	ConfigLoadErr error
}

// requiredHomeDir resolves $HOME, requiring it to be set, absolute, and
// to exist (§6: HOME is the one required env var).
func requiredHomeDir() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", fmt.Errorf("lux: HOME is not set")
	}
	if !filepath.IsAbs(home) {
		return "", fmt.Errorf("lux: HOME must be an absolute path, got %q", home)
	}
	info, err := os.Stat(home)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("lux: HOME directory %q does not exist", home)
	}
	return home, nil
}

// defaultConfigDir returns the per-OS default configuration directory
// used when LUX_CONFIG_DIR is unset.
func defaultConfigDir(goos, home string) string {
	if goos == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "lux")
	}
	return filepath.Join(home, ".config", "lux")
}

// resolveConfigDir honors LUX_CONFIG_DIR, else falls back to the per-OS
// default under home.
func resolveConfigDir(home string) string {
	if dir := os.Getenv("LUX_CONFIG_DIR"); dir != "" {
		return dir
	}
	return defaultConfigDir(runtime.GOOS, home)
}

// resolveConfigPath honors an explicit --config flag, then LUX_CONFIG,
// then config.yaml under the resolved config dir.
func resolveConfigPath(explicit, home string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("LUX_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(resolveConfigDir(home), "config.yaml")
}

// resolveEnvFile honors LUX_ENV_FILE, else compose.env inside the
// config directory.
func resolveEnvFile(home string) string {
	if p := os.Getenv("LUX_ENV_FILE"); p != "" {
		return p
	}
	return filepath.Join(resolveConfigDir(home), "compose.env")
}

// bundleDirFromExePath derives a bundle directory from the running
// binary's location, the same "ship next to the exe" convention a
// single-binary CLI distribution relies on.
func bundleDirFromExePath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// resolveBundleDir honors LUX_BUNDLE_DIR, else derives one from the exe
// path, else falls back to the config dir (useful in dev/test builds
// where compose.yml is dropped alongside config.yaml).
func resolveBundleDir(home string) string {
	if dir := os.Getenv("LUX_BUNDLE_DIR"); dir != "" {
		return dir
	}
	if dir := bundleDirFromExePath(); dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "compose.yml")); err == nil {
			return dir
		}
	}
	return resolveConfigDir(home)
}

// resolveComposeOverrides turns repeated --compose-file flags into an
// override list; nil/empty means "use the bundle's default files".
func resolveComposeOverrides(flagValues []string) []string {
	if len(flagValues) == 0 {
		return nil
	}
	out := make([]string, len(flagValues))
	copy(out, flagValues)
	return out
}

// buildContext resolves every path cmd/lux needs and, unless skipConfig
// is set, eagerly loads config.yaml so commands can report a load error
// through the normal JSON envelope rather than a bare cobra error.
func buildContext(cmd rootFlags, skipConfig bool) (*cliContext, error) {
	home, err := requiredHomeDir()
	if err != nil {
		return nil, err
	}

	ctx := &cliContext{
		Home:         home,
		ConfigPath:   resolveConfigPath(cmd.configPath, home),
		EnvFile:      resolveEnvFile(home),
		BundleDir:    resolveBundleDir(home),
		ComposeFiles: resolveComposeOverrides(cmd.composeFiles),
		JSON:         cmd.jsonOutput,
	}

	if !skipConfig {
		doc, loadErr := config.Load(ctx.ConfigPath, home)
		ctx.Config = doc
		ctx.ConfigLoadErr = loadErr
	}

	return ctx, nil
}

// requireConfig returns the loaded config or the load error encountered
// in buildContext, for subcommands that cannot proceed without one.
func (c *cliContext) requireConfig() (*config.Document, error) {
	if c.ConfigLoadErr != nil {
		return nil, fmt.Errorf("lux: load config %s: %w", c.ConfigPath, c.ConfigLoadErr)
	}
	if c.Config == nil {
		return nil, fmt.Errorf("lux: config not loaded")
	}
	return c.Config, nil
}

// logRoot/workspaceRoot are convenience accessors used throughout the
// lifecycle commands.
func (c *cliContext) logRoot() string       { return c.Config.Paths.LogRoot }
func (c *cliContext) workspaceRoot() string { return c.Config.Paths.WorkspaceRoot }

// runtimeDir is the directory holding the control-plane socket/pid/journal.
func (c *cliContext) runtimeDir() string {
	return filepath.Join(resolveConfigDir(c.Home), "runtime")
}

func (c *cliContext) socketPath() string {
	configured := ""
	if c.Config != nil {
		configured = c.Config.RuntimeControlPlane.SocketPath
	}
	if configured != "" {
		return configured
	}
	return config.ResolveSocketPath(filepath.Join(c.runtimeDir(), "control_plane.sock"), os.TempDir())
}

func (c *cliContext) pidPath() string {
	return filepath.Join(c.runtimeDir(), "control_plane.pid")
}

func (c *cliContext) journalPath() string {
	return filepath.Join(c.runtimeDir(), "events.jsonl")
}

func (c *cliContext) socketGID() int {
	if c.Config == nil || c.Config.RuntimeControlPlane.SocketGID == nil {
		return -1
	}
	return *c.Config.RuntimeControlPlane.SocketGID
}
