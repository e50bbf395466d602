package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lux-run/lux/pkg/config"
)

func TestDefaultConfigDirPerOS(t *testing.T) {
	home := "/home/alice"
	require.Equal(t, filepath.Join(home, "Library", "Application Support", "lux"), defaultConfigDir("darwin", home))
	require.Equal(t, filepath.Join(home, ".config", "lux"), defaultConfigDir("linux", home))
}

func TestResolveConfigDirHonorsEnv(t *testing.T) {
	home := "/home/alice"
	t.Setenv("LUX_CONFIG_DIR", "/custom/config")
	require.Equal(t, "/custom/config", resolveConfigDir(home))

	t.Setenv("LUX_CONFIG_DIR", "")
	require.Equal(t, defaultConfigDir(runtime.GOOS, home), resolveConfigDir(home))
}

func TestResolveConfigPathPrecedence(t *testing.T) {
	home := "/home/alice"
	t.Setenv("LUX_CONFIG_DIR", "")
	t.Setenv("LUX_CONFIG", "")

	require.Equal(t, "/explicit/config.yaml", resolveConfigPath("/explicit/config.yaml", home))

	t.Setenv("LUX_CONFIG", "/env/config.yaml")
	require.Equal(t, "/env/config.yaml", resolveConfigPath("", home))

	t.Setenv("LUX_CONFIG", "")
	require.Equal(t, filepath.Join(resolveConfigDir(home), "config.yaml"), resolveConfigPath("", home))
}

func TestResolveEnvFileHonorsEnv(t *testing.T) {
	home := "/home/alice"
	t.Setenv("LUX_CONFIG_DIR", "")
	t.Setenv("LUX_ENV_FILE", "")
	require.Equal(t, filepath.Join(resolveConfigDir(home), "compose.env"), resolveEnvFile(home))

	t.Setenv("LUX_ENV_FILE", "/env/compose.env")
	require.Equal(t, "/env/compose.env", resolveEnvFile(home))
}

func TestResolveBundleDirFallsBackToConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LUX_CONFIG_DIR", "")
	t.Setenv("LUX_BUNDLE_DIR", "")
	require.Equal(t, resolveConfigDir(home), resolveBundleDir(home))
}

func TestResolveBundleDirHonorsEnv(t *testing.T) {
	home := "/home/alice"
	t.Setenv("LUX_BUNDLE_DIR", "/opt/lux/bundle")
	require.Equal(t, "/opt/lux/bundle", resolveBundleDir(home))
}

func TestResolveComposeOverridesEmptyIsNil(t *testing.T) {
	require.Nil(t, resolveComposeOverrides(nil))
	require.Nil(t, resolveComposeOverrides([]string{}))

	got := resolveComposeOverrides([]string{"a.yml", "b.yml"})
	require.Equal(t, []string{"a.yml", "b.yml"}, got)
}

func TestRequiredHomeDirRejectsMissingAndRelative(t *testing.T) {
	t.Setenv("HOME", "")
	_, err := requiredHomeDir()
	require.Error(t, err)

	t.Setenv("HOME", "relative/path")
	_, err = requiredHomeDir()
	require.Error(t, err)

	t.Setenv("HOME", filepath.Join(t.TempDir(), "does-not-exist"))
	_, err = requiredHomeDir()
	require.Error(t, err)
}

func TestRequiredHomeDirAcceptsRealDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := requiredHomeDir()
	require.NoError(t, err)
	require.Equal(t, home, got)
}

func TestCliContextSocketPathFallsBackWhenUnconfigured(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LUX_CONFIG_DIR", "")
	ctx := &cliContext{Home: home}

	want := config.ResolveSocketPath(filepath.Join(ctx.runtimeDir(), "control_plane.sock"), os.TempDir())
	require.Equal(t, want, ctx.socketPath())
}

func TestCliContextSocketPathHonorsConfiguredValue(t *testing.T) {
	ctx := &cliContext{
		Home:   t.TempDir(),
		Config: &config.Document{RuntimeControlPlane: config.RuntimeControlPlane{SocketPath: "/configured/control_plane.sock"}},
	}
	require.Equal(t, "/configured/control_plane.sock", ctx.socketPath())
}

func TestCliContextPidAndJournalPaths(t *testing.T) {
	ctx := &cliContext{Home: t.TempDir()}
	t.Setenv("LUX_CONFIG_DIR", "")
	require.Equal(t, filepath.Join(ctx.runtimeDir(), "control_plane.pid"), ctx.pidPath())
	require.Equal(t, filepath.Join(ctx.runtimeDir(), "events.jsonl"), ctx.journalPath())
}
