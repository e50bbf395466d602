package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicWriteCreatesWithDefaultMode(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yaml")

	require.NoError(t, AtomicWrite(target, []byte("version: 2\n"), DefaultConfigMode))

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultConfigMode), info.Mode().Perm())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "version: 2\n", string(data))
}

func TestAtomicWritePreservesExistingMode(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "secrets.yaml")

	require.NoError(t, os.WriteFile(target, []byte("old"), DefaultSecretMode))

	require.NoError(t, AtomicWrite(target, []byte("new"), DefaultConfigMode))

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultSecretMode), info.Mode().Perm())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestAtomicWriteLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yaml")

	require.NoError(t, AtomicWrite(target, []byte("a"), DefaultConfigMode))
	require.NoError(t, AtomicWrite(target, []byte("b"), DefaultConfigMode))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}
