package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuntimeBypassEnabled(t *testing.T) {
	cases := map[string]bool{
		"":      false,
		"0":     false,
		"false": false,
		"no":    false,
		"1":     true,
		"true":  true,
		"YES":   true,
		" on ":  true,
	}
	for val, want := range cases {
		t.Setenv("LUX_RUNTIME_BYPASS", val)
		require.Equal(t, want, runtimeBypassEnabled(), "value %q", val)
	}
}

func TestShouldRouteThroughRuntime(t *testing.T) {
	t.Setenv("LUX_RUNTIME_BYPASS", "")

	proxied := []string{"up", "down", "status", "ui", "run"}
	for _, verb := range proxied {
		require.True(t, shouldRouteThroughRuntime(verb), "verb %q", verb)
	}

	local := []string{"config", "doctor", "paths", "jobs", "logs", "shim", "tui", "setup", "update", "uninstall", "runtime"}
	for _, verb := range local {
		require.False(t, shouldRouteThroughRuntime(verb), "verb %q", verb)
	}
}

func TestShouldRouteThroughRuntimeRespectsBypass(t *testing.T) {
	t.Setenv("LUX_RUNTIME_BYPASS", "1")
	require.False(t, shouldRouteThroughRuntime("up"))
	require.False(t, shouldRouteThroughRuntime("run"))
}

func TestRuntimePingFailsWithoutListener(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "control_plane.sock")
	require.False(t, runtimePing(socketPath))
}

func TestRuntimeControlPlaneRequestFailsWithoutListener(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "control_plane.sock")
	_, _, err := runtimeControlPlaneRequest(socketPath, "GET", "/v1/healthz", nil)
	require.Error(t, err)
}

func TestParsePort(t *testing.T) {
	got, err := parsePort("8081")
	require.NoError(t, err)
	require.Equal(t, 8081, got)

	_, err = parsePort("not-a-port")
	require.Error(t, err)
}

type exitCodeErr struct{ code int }

func (e exitCodeErr) Error() string { return "exit error" }
func (e exitCodeErr) ExitCode() int { return e.code }

func TestAsExitError(t *testing.T) {
	code, ok := asExitError(exitCodeErr{code: 3})
	require.True(t, ok)
	require.Equal(t, 3, code)

	_, ok = asExitError(errors.New("plain error"))
	require.False(t, ok)
}
