package doctor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lux-run/lux/pkg/config"
)

var collectorSensorPaths = []string{"/sys/fs/bpf", "/sys/kernel/tracing", "/sys/kernel/debug"}

// Deps supplies the environment a check battery runs against; RunCommand
// and LookupBinary default to real exec/PATH lookups but are overridable
// for tests.
type Deps struct {
	Config       *config.Document
	ComposeFiles []string

	RunCommand   CommandRunner
	LookupBinary BinaryLookup
}

func (d Deps) runner() CommandRunner {
	if d.RunCommand != nil {
		return d.RunCommand
	}
	return defaultCommandRunner
}

func (d Deps) lookup() BinaryLookup {
	if d.LookupBinary != nil {
		return d.LookupBinary
	}
	return defaultBinaryLookup
}

// RunAll executes every named readiness check and returns them in a fixed
// order matching §4.9's list.
func RunAll(deps Deps) []Check {
	return []Check{
		checkDockerRuntime(deps),
		checkDockerCompose(deps),
		checkComposeContract(deps),
		checkLogSinkPermissions(deps),
		checkPathConfigCoherence(deps),
		checkRuntimeSocketReady(deps),
		checkHarnessTokenSanity(deps),
		checkCollectorSensorReadiness(deps),
		checkAttributionPrerequisites(deps),
		checkContractSchemaCompatibility(deps),
	}
}

// Summary aggregates check outcomes per §4.9's strict-mode fail rule.
type Summary struct {
	OK     bool
	Checks []Check
}

// Evaluate runs the full battery and decides overall pass/fail. In strict
// mode, a strict_fail warning also fails the run; otherwise only
// severity=error failures do.
func Evaluate(deps Deps, strict bool) Summary {
	checks := RunAll(deps)
	hasError := false
	hasStrictWarning := false
	for _, c := range checks {
		if c.OK {
			continue
		}
		if c.Severity == SeverityError {
			hasError = true
		}
		if c.StrictFail {
			hasStrictWarning = true
		}
	}
	ok := !hasError && (!strict || !hasStrictWarning)
	return Summary{OK: ok, Checks: checks}
}

func checkDockerRuntime(deps Deps) Check {
	installed := deps.lookup()("docker")
	ok := installed && deps.runner()("docker", "info")
	msg := "docker daemon reachable"
	if !ok {
		if installed {
			msg = "docker is installed but daemon is unreachable"
		} else {
			msg = "docker is not installed or not in PATH"
		}
	}
	return newCheck("docker_runtime", ok, SeverityError, true,
		msg, msg,
		"Install/start Docker Desktop (or compatible Docker runtime) and rerun `lux doctor`.",
		map[string]interface{}{"docker_installed": installed})
}

func checkDockerCompose(deps Deps) Check {
	installed := deps.lookup()("docker")
	ok := installed && deps.runner()("docker", "compose", "version")
	return newCheck("docker_compose", ok, SeverityError, true,
		"docker compose is available", "docker compose is not available",
		"Install/enable Docker Compose and rerun `lux doctor`.",
		map[string]interface{}{"docker_installed": installed})
}

func checkComposeContract(deps Deps) Check {
	var missing []string
	for _, f := range deps.ComposeFiles {
		if !pathExists(f) {
			missing = append(missing, f)
		}
	}
	ok := len(missing) == 0
	return newCheck("compose_contract", ok, SeverityError, true,
		"compose/runtime contract files present", "one or more compose contract files are missing",
		"Reinstall/update the CLI bundle or fix `LUX_BUNDLE_DIR`/`--compose-file` overrides.",
		map[string]interface{}{"missing_files": missing})
}

func checkLogSinkPermissions(deps Deps) Check {
	logRoot := deps.Config.Paths.LogRoot
	ok := dirWritable(logRoot)
	return newCheck("log_sink_permissions", ok, SeverityError, true,
		"log root is writable", "log root is not writable",
		"Ensure "+logRoot+" exists and is writable by your user.",
		map[string]interface{}{"log_root": logRoot})
}

func checkPathConfigCoherence(deps Deps) Check {
	workspaceRoot := deps.Config.Paths.WorkspaceRoot
	logRoot := deps.Config.Paths.LogRoot
	workspaceOK := os.MkdirAll(workspaceRoot, 0o755) == nil
	sameDirs := workspaceRoot == logRoot
	ok := workspaceOK && !sameDirs
	msg := "workspace/log path config is coherent"
	if !ok {
		if sameDirs {
			msg = "workspace_root and log_root should not be the same path"
		} else {
			msg = "workspace_root is not writable"
		}
	}
	return newCheck("path_config_coherence", ok, SeverityWarn, true,
		msg, msg,
		"Set distinct writable `paths.workspace_root` and `paths.log_root` values.",
		map[string]interface{}{"workspace_root": workspaceRoot, "log_root": logRoot})
}

func checkRuntimeSocketReady(deps Deps) Check {
	runtimeDir := filepath.Dir(deps.Config.RuntimeControlPlane.SocketPath)
	ok := os.MkdirAll(runtimeDir, 0o755) == nil
	return newCheck("runtime_socket_ready", ok, SeverityWarn, false,
		"runtime socket directory is writable", "runtime socket directory is not writable",
		"Ensure runtime dir "+runtimeDir+" is writable for runtime daemon startup.",
		map[string]interface{}{"runtime_dir": runtimeDir})
}

func checkHarnessTokenSanity(deps Deps) Check {
	ok := strings.TrimSpace(deps.Config.Harness.APIToken) != "" || os.Getenv("HARNESS_API_TOKEN") != ""
	return newCheck("harness_token_sanity", ok, SeverityWarn, false,
		"harness token configured", "harness token is empty",
		"Set `harness.api_token` in config or HARNESS_API_TOKEN env before non-interactive `lux run`.",
		map[string]interface{}{})
}

func checkCollectorSensorReadiness(deps Deps) Check {
	ok := true
	for _, p := range collectorSensorPaths {
		if !pathExists(p) {
			ok = false
			break
		}
	}
	return newCheck("collector_sensor_readiness", ok, SeverityWarn, false,
		"collector sensor paths look available", "collector sensor prerequisite paths missing on host",
		"Verify the Docker host runtime supports collector requirements (audit/eBPF prerequisites).",
		map[string]interface{}{"required_paths": collectorSensorPaths})
}

func checkAttributionPrerequisites(deps Deps) Check {
	ok := true
	for _, p := range deps.Config.Providers {
		if len(p.Ownership.RootComm) == 0 {
			ok = false
			break
		}
	}
	return newCheck("attribution_prerequisites", ok, SeverityError, true,
		"provider ownership attribution config present", "one or more providers have empty ownership.root_comm",
		"Ensure each provider has non-empty `ownership.root_comm` entries.",
		map[string]interface{}{})
}

func checkContractSchemaCompatibility(deps Deps) Check {
	ok := deps.Config.Version == config.CurrentVersion
	return newCheck("contract_schema_compatibility", ok, SeverityError, true,
		"config schema version is compatible", "config schema version is incompatible",
		"Set `version: 2` in config.yaml and migrate provider blocks as needed.",
		map[string]interface{}{"config_version": deps.Config.Version})
}
