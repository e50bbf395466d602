package compose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFailureKnownPatterns(t *testing.T) {
	cases := []struct {
		stderr   string
		wantCode string
	}{
		{"Cannot connect to the Docker daemon at unix:///var/run/docker.sock", "docker_daemon_unreachable"},
		{"docker: 'compose' is not a docker command.", "docker_compose_unavailable"},
		{"Error response from daemon: port is already allocated", "docker_port_conflict"},
		{"service \"agent\" didn't become healthy", "docker_compose_wait_timeout"},
		{"Error response from daemon: pull access denied, repository does not exist or may require authorization", "docker_registry_auth"},
		{"something totally unrecognized happened", "process_command_failed"},
	}
	for _, c := range cases {
		got := classifyFailure(c.stderr)
		require.Equal(t, c.wantCode, got.errorCode, "stderr=%q", c.stderr)
	}
}

func TestClassifyFailureIsCaseInsensitive(t *testing.T) {
	got := classifyFailure("IS THE DOCKER DAEMON RUNNING?")
	require.Equal(t, "docker_daemon_unreachable", got.errorCode)
}

func TestClassifySpawnFailureNotFound(t *testing.T) {
	err := errors.New(`exec: "docker": executable file not found in $PATH`)
	got := classifySpawnFailure(err)
	require.Equal(t, "docker_not_found", got.errorCode)
}

func TestClassifySpawnFailureOther(t *testing.T) {
	got := classifySpawnFailure(errors.New("permission denied"))
	require.Equal(t, defaultErrorCode, got.errorCode)
}
