package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPathsForOSDarwinVsLinux(t *testing.T) {
	home := "/Users/alice"

	darwin := DefaultPathsForOS("darwin", home)
	require.Equal(t, "/Users/Shared/Lux/logs", darwin.LogRoot)
	require.Equal(t, home, darwin.WorkspaceRoot)
	require.Equal(t, home, darwin.TrustedRoot)

	linux := DefaultPathsForOS("linux", home)
	require.Equal(t, "/var/lib/lux/logs", linux.LogRoot)
	require.Equal(t, home, linux.WorkspaceRoot)
}

func TestDefaultProvidersShape(t *testing.T) {
	providers := DefaultProviders()
	require.Contains(t, providers, "codex")
	require.Contains(t, providers, "claude")

	codex := providers["codex"]
	require.Equal(t, AuthModeAPIKey, codex.AuthMode)
	require.Equal(t, "OPENAI_API_KEY", codex.APIKeyEnvKey)
	require.Contains(t, codex.HostStatePaths, "~/.codex/auth.json")
	require.Equal(t, []string{"codex"}, codex.Ownership.RootComm)

	claude := providers["claude"]
	require.Equal(t, AuthModeHostState, claude.AuthMode)
	require.Equal(t, "ANTHROPIC_API_KEY", claude.APIKeyEnvKey)
	require.Contains(t, claude.HostStatePaths, "~/.claude.json")
}

func TestDefaultDocumentIsWellFormed(t *testing.T) {
	doc := Default("/home/alice")
	require.Equal(t, CurrentVersion, doc.Version)
	require.Equal(t, "lux", doc.Docker.ProjectName)
	require.Equal(t, "127.0.0.1", doc.Harness.APIHost)
	require.Equal(t, 8081, doc.Harness.APIPort)
	require.True(t, doc.Collector.AutoStart)
	require.Equal(t, 10080, doc.Collector.IdleTimeoutMin)
	require.Equal(t, 1440, doc.Collector.RotateEveryMin)
	require.Len(t, doc.Providers, 2)
	require.Equal(t, DefaultSocketPath, doc.RuntimeControlPlane.SocketPath)
}
