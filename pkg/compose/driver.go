package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lux-run/lux/pkg/config"
	"github.com/lux-run/lux/pkg/metrics"
)

const waitTimeoutSeconds = "60"

// CommandOutput is the captured result of one docker invocation.
type CommandOutput struct {
	Argv       []string
	StatusCode int
	Stdout     []byte
	Stderr     []byte
}

// Driver translates up/down/status verbs into `docker compose` argv and
// runs them, classifying any non-zero exit per §4.7.
type Driver struct {
	Config        *config.Document
	BundleDir     string
	EnvFile       string
	LogRoot       string
	WorkspaceRoot string

	// ComposeFileOverrides, when non-empty, replaces the default
	// [compose.yml, compose.ui.yml] file resolution entirely.
	ComposeFileOverrides []string
}

// New constructs a Driver rooted at bundleDir, the directory holding
// compose.yml / compose.ui.yml / compose.env / runtime/.
func New(cfg *config.Document, bundleDir, logRoot, workspaceRoot string) *Driver {
	return &Driver{
		Config:        cfg,
		BundleDir:     bundleDir,
		EnvFile:       filepath.Join(bundleDir, "compose.env"),
		LogRoot:       logRoot,
		WorkspaceRoot: workspaceRoot,
	}
}

func (d *Driver) composeFiles(ui bool, overrideFiles []string) ([]string, error) {
	var files []string
	if len(d.ComposeFileOverrides) > 0 {
		files = append(files, d.ComposeFileOverrides...)
	} else {
		files = append(files, filepath.Join(d.BundleDir, "compose.yml"))
		if ui {
			files = append(files, filepath.Join(d.BundleDir, "compose.ui.yml"))
		}
	}
	files = append(files, overrideFiles...)

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("compose: missing compose file: %s", f)
		}
	}
	return files, nil
}

// EnsureEnvFile writes compose.env from the current config if it does
// not already exist, for callers that need the file materialized without
// running a full compose verb (e.g. `lux config apply`).
func (d *Driver) EnsureEnvFile() error {
	return d.ensureEnvFile()
}

func (d *Driver) ensureEnvFile() error {
	if _, err := os.Stat(d.EnvFile); err == nil {
		return nil
	}
	envs := d.baseEnv()
	return writeEnvFile(d.EnvFile, envs)
}

func (d *Driver) baseEnv() map[string]string {
	envs := map[string]string{
		"LUX_LOG_ROOT":       d.LogRoot,
		"LUX_WORKSPACE_ROOT": d.WorkspaceRoot,
		"LUX_HARNESS_HOST":   d.Config.Harness.APIHost,
		"LUX_HARNESS_PORT":   fmt.Sprintf("%d", d.Config.Harness.APIPort),
	}
	if d.Config.Harness.APIToken != "" {
		envs["LUX_HARNESS_TOKEN"] = d.Config.Harness.APIToken
	}
	return envs
}

func writeEnvFile(path string, envs map[string]string) error {
	keys := make([]string, 0, len(envs))
	for k := range envs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, envs[k])
	}
	return config.AtomicWrite(path, buf.Bytes(), 0o600)
}

// baseArgs builds the `compose --env-file ... [-p project] -f file...`
// prefix shared by every verb.
func (d *Driver) baseArgs(ui bool, overrideFiles []string) ([]string, error) {
	files, err := d.composeFiles(ui, overrideFiles)
	if err != nil {
		return nil, err
	}
	if err := d.ensureEnvFile(); err != nil {
		return nil, fmt.Errorf("compose: write env file: %w", err)
	}

	args := []string{"compose", "--env-file", d.EnvFile}
	if project := strings.TrimSpace(d.Config.Docker.ProjectName); project != "" {
		args = append(args, "-p", project)
	}
	for _, f := range files {
		args = append(args, "-f", f)
	}
	return args, nil
}

// Up brings the stack up, optionally including the UI manifest and any
// per-provider overlay files, waiting for health. services, when
// non-empty, restricts the verb to those service names (used to scope a
// plane-start to just the collector or just the agent+harness pair, per
// §4.4's plane boundaries); empty brings up every service in the resolved
// compose files.
func (d *Driver) Up(ctx context.Context, ui bool, overrideFiles []string, services []string, envOverrides map[string]string) (*CommandOutput, error) {
	args, err := d.baseArgs(ui, overrideFiles)
	if err != nil {
		return nil, err
	}
	args = append(args, "up", "-d", "--wait", "--wait-timeout", waitTimeoutSeconds)
	args = append(args, services...)
	return d.run(ctx, "up", args, envOverrides)
}

// Down tears the stack down. services, when non-empty, restricts the
// teardown to those service names (used for --collector-only stops).
func (d *Driver) Down(ctx context.Context, services []string, envOverrides map[string]string) (*CommandOutput, error) {
	args, err := d.baseArgs(false, nil)
	if err != nil {
		return nil, err
	}
	verb := "stop"
	if len(services) == 0 {
		args = append(args, "down", "--remove-orphans")
		verb = "down"
	} else {
		args = append(args, "stop")
		args = append(args, services...)
	}
	return d.run(ctx, verb, args, envOverrides)
}

// Status runs `compose ps` and returns the raw stdout for the caller to
// parse (JSON-per-line in recent compose versions).
func (d *Driver) Status(ctx context.Context, envOverrides map[string]string) (*CommandOutput, error) {
	args, err := d.baseArgs(true, nil)
	if err != nil {
		return nil, err
	}
	args = append(args, "ps", "--format", "json")
	return d.run(ctx, "ps", args, envOverrides)
}

// RunningServices reports, by name, which of services are currently in
// "running" state, via `compose ps --status running --services`. This is
// the plane-status primitive the C4 transitions and the supervisor's
// status endpoints are built on.
func (d *Driver) RunningServices(ctx context.Context, services []string, envOverrides map[string]string) ([]string, error) {
	args, err := d.baseArgs(false, nil)
	if err != nil {
		return nil, err
	}
	args = append(args, "ps", "--status", "running", "--services")
	args = append(args, services...)

	out, err := d.run(ctx, "ps", args, envOverrides)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(string(out.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func containsAll(haystack []string, wants ...string) bool {
	for _, w := range wants {
		found := false
		for _, h := range haystack {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CollectorRunning reports whether the collector compose service is running.
func (d *Driver) CollectorRunning(ctx context.Context, envOverrides map[string]string) (bool, error) {
	running, err := d.RunningServices(ctx, []string{"collector"}, envOverrides)
	if err != nil {
		return false, err
	}
	return containsAll(running, "collector"), nil
}

// ProviderPlaneRunning reports whether both the agent and harness compose
// services are running (§4.4's provider plane).
func (d *Driver) ProviderPlaneRunning(ctx context.Context, envOverrides map[string]string) (bool, error) {
	running, err := d.RunningServices(ctx, []string{"agent", "harness"}, envOverrides)
	if err != nil {
		return false, err
	}
	return containsAll(running, "agent", "harness"), nil
}

func (d *Driver) run(ctx context.Context, verb string, args []string, envOverrides map[string]string) (*CommandOutput, error) {
	command := renderDockerCommand(args)

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ComposeCommandDuration, verb)

	runCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "docker", args...)
	cmd.Dir = d.BundleDir
	if len(envOverrides) > 0 {
		env := os.Environ()
		for k, v := range envOverrides {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderrText := strings.TrimSpace(stderr.String())
			classified := classifyFailure(stderrText)
			metrics.ComposeCommandsTotal.WithLabelValues(verb, "failure").Inc()
			return &CommandOutput{Argv: args, StatusCode: exitErr.ExitCode(), Stdout: stdout.Bytes(), Stderr: stderr.Bytes()},
				newProcessError(command, classified, stderrText)
		}
		classified := classifySpawnFailure(err)
		metrics.ComposeCommandsTotal.WithLabelValues(verb, "failure").Inc()
		return nil, newProcessError(command, classified, err.Error())
	}

	metrics.ComposeCommandsTotal.WithLabelValues(verb, "success").Inc()
	return &CommandOutput{Argv: args, StatusCode: 0, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

func renderDockerCommand(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, "docker")
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(part string) string {
	if part == "" {
		return `""`
	}
	if strings.ContainsAny(part, " \t\n") {
		return `"` + strings.ReplaceAll(part, `"`, `\"`) + `"`
	}
	return part
}
