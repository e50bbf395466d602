package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home := "/home/alice"

	got, err := ExpandHome("~", home)
	require.NoError(t, err)
	require.Equal(t, home, got)

	got, err = ExpandHome("~/workspace", home)
	require.NoError(t, err)
	require.Equal(t, "/home/alice/workspace", got)

	got, err = ExpandHome("/already/absolute", home)
	require.NoError(t, err)
	require.Equal(t, "/already/absolute", got)

	_, err = ExpandHome("~bob/workspace", home)
	require.Error(t, err)
}

func TestCanonicalizeExistingAndMissingTail(t *testing.T) {
	dir := t.TempDir()

	resolved, err := Canonicalize(dir)
	require.NoError(t, err)
	require.Equal(t, dir, resolved)

	missing := filepath.Join(dir, "does", "not", "exist")
	resolved, err = Canonicalize(missing)
	require.NoError(t, err)
	require.Equal(t, missing, resolved)
}

func TestIsSubPath(t *testing.T) {
	require.True(t, IsSubPath("/home/alice", "/home/alice/workspace"))
	require.True(t, IsSubPath("/home/alice", "/home/alice"))
	require.False(t, IsSubPath("/home/alice", "/home/bob"))
	require.False(t, IsSubPath("/home/alice/workspace", "/home/alice"))
}

func TestValidatePathInvariants(t *testing.T) {
	home := t.TempDir()
	workspace := filepath.Join(home, "workspace")
	require.NoError(t, os.Mkdir(workspace, 0o755))

	logRoot := t.TempDir()

	require.NoError(t, ValidatePathInvariants(home, workspace, logRoot))
}

func TestValidatePathInvariantsRejectsLogRootInsideHome(t *testing.T) {
	home := t.TempDir()
	workspace := filepath.Join(home, "workspace")
	require.NoError(t, os.Mkdir(workspace, 0o755))

	logRoot := filepath.Join(home, "logs")
	require.NoError(t, os.Mkdir(logRoot, 0o755))

	err := ValidatePathInvariants(home, workspace, logRoot)
	require.Error(t, err)
}

func TestValidatePathInvariantsRejectsWorkspaceOutsideHome(t *testing.T) {
	home := t.TempDir()
	workspace := t.TempDir()
	logRoot := t.TempDir()

	err := ValidatePathInvariants(home, workspace, logRoot)
	require.Error(t, err)
}

func TestResolveSocketPathShortUnchanged(t *testing.T) {
	short := "/tmp/lux.sock"
	require.Equal(t, short, ResolveSocketPath(short, "/tmp"))
}

func TestResolveSocketPathLongFallsBackDeterministically(t *testing.T) {
	long := "/home/alice/.local/share/lux-run/lux/workspace/deeply/nested/directory/structure/that/exceeds/the/unix/socket/path/length/budget/runtime.sock"
	require.Greater(t, len(long), maxSocketPathLen)

	a := ResolveSocketPath(long, "/tmp")
	b := ResolveSocketPath(long, "/tmp")
	require.Equal(t, a, b)
	require.LessOrEqual(t, len(a), maxSocketPathLen)
	require.True(t, IsSubPath("/tmp", a))
}
