package compose

import "strings"

type classification struct {
	errorCode string
	hint      string
}

const defaultErrorCode = "process_command_failed"

type stderrPattern struct {
	substrings []string
	result     classification
}

// stderrPatterns is the fixed lowercase-substring table §4.7 mandates for
// classifying a non-zero `docker compose` exit. Order matters: the first
// matching row wins.
var stderrPatterns = []stderrPattern{
	{
		substrings: []string{
			"unknown command: docker compose",
			"is not a docker command",
			"unknown flag: --env-file",
			"unknown shorthand flag: 'f' in -f",
		},
		result: classification{
			errorCode: "docker_compose_unavailable",
			hint:      "Docker Compose is unavailable. If HOME is overridden, set DOCKER_CONFIG to a directory containing Docker CLI plugins (for example ~/.docker).",
		},
	},
	{
		substrings: []string{
			"cannot connect to the docker daemon",
			"is the docker daemon running",
			"failed to connect to the docker api",
			"error during connect",
		},
		result: classification{
			errorCode: "docker_daemon_unreachable",
			hint:      "Docker daemon is unreachable. Start Docker Desktop (or dockerd) and retry.",
		},
	},
	{
		substrings: []string{
			"unknown flag: --wait",
			"unknown flag: --wait-timeout",
		},
		result: classification{
			errorCode: "docker_compose_flag_unsupported",
			hint:      "Your Docker Compose version does not support required flags. Upgrade Docker/Compose and retry.",
		},
	},
	{
		substrings: []string{
			"port is already allocated",
			"bind: address already in use",
			"address already in use",
		},
		result: classification{
			errorCode: "docker_port_conflict",
			hint:      "A required host port is already in use. Free the conflicting port or update config/overrides.",
		},
	},
	{
		substrings: []string{
			"timed out waiting",
			"timeout waiting",
			"did not become healthy",
			"didn't become healthy",
			"context deadline exceeded",
			"application not healthy",
		},
		result: classification{
			errorCode: "docker_compose_wait_timeout",
			hint:      "Compose wait timed out. Check `docker compose ps` and `docker compose logs`, then retry with a larger timeout.",
		},
	},
	{
		substrings: []string{"denied", "unauthorized", "authentication"},
		result: classification{
			errorCode: "docker_registry_auth",
			hint:      "Authenticate with `docker login` for private images.",
		},
	},
}

// classifyFailure maps stderr from a failed docker compose invocation to
// an error code + remediation hint. Unmatched stderr falls back to
// process_command_failed with no hint.
func classifyFailure(stderr string) classification {
	lower := strings.ToLower(stderr)
	for _, p := range stderrPatterns {
		for _, s := range p.substrings {
			if strings.Contains(lower, s) {
				return p.result
			}
		}
	}
	return classification{errorCode: defaultErrorCode}
}

// classifySpawnFailure handles the case where the docker binary itself
// could not be started (exec.ErrNotFound and friends), distinct from a
// non-zero exit of a successfully-started process.
func classifySpawnFailure(err error) classification {
	if strings.Contains(err.Error(), "executable file not found") {
		return classification{
			errorCode: "docker_not_found",
			hint:      "Install Docker and ensure `docker` is on your PATH.",
		}
	}
	return classification{errorCode: defaultErrorCode}
}
