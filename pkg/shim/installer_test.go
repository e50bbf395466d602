package shim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstallWritesExecutableScript(t *testing.T) {
	binDir := t.TempDir()
	res, err := Install(binDir, "codex")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(binDir, "codex"), res.Path)

	info, err := os.Stat(res.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	body, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	require.Contains(t, string(body), "lux shim exec codex")
	require.Contains(t, string(body), marker)
}

func TestInstallIsIdempotentOverManagedShim(t *testing.T) {
	binDir := t.TempDir()
	_, err := Install(binDir, "codex")
	require.NoError(t, err)

	_, err = Install(binDir, "codex")
	require.NoError(t, err)
}

func TestInstallRefusesToOverwriteUnmanagedBinary(t *testing.T) {
	binDir := t.TempDir()
	path := PathForProvider(binDir, "codex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho not-a-shim\n"), 0o755))

	_, err := Install(binDir, "codex")
	require.Error(t, err)
	require.Contains(t, err.Error(), "overwrite")
}

func TestUninstallRemovesManagedShimOnly(t *testing.T) {
	binDir := t.TempDir()
	_, err := Install(binDir, "codex")
	require.NoError(t, err)

	removed, path, err := Uninstall(binDir, "codex")
	require.NoError(t, err)
	require.True(t, removed)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestUninstallLeavesUnmanagedBinaryInPlace(t *testing.T) {
	binDir := t.TempDir()
	path := PathForProvider(binDir, "claude")
	require.NoError(t, os.WriteFile(path, []byte("not a shim"), 0o755))

	removed, _, err := Uninstall(binDir, "claude")
	require.NoError(t, err)
	require.False(t, removed)
	require.FileExists(t, path)
}

func TestUninstallMissingIsNoop(t *testing.T) {
	binDir := t.TempDir()
	removed, _, err := Uninstall(binDir, "codex")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestListReportsInstalledAndMissing(t *testing.T) {
	binDir := t.TempDir()
	_, err := Install(binDir, "codex")
	require.NoError(t, err)

	entries := List(binDir, []string{"codex", "claude"})
	require.Len(t, entries, 2)
	require.True(t, entries[0].Installed)
	require.False(t, entries[1].Installed)
}

func TestNormalizeProvidersDefaults(t *testing.T) {
	require.Equal(t, DefaultProviders, NormalizeProviders(nil))
	require.Equal(t, []string{"gemini"}, NormalizeProviders([]string{"gemini"}))
}
