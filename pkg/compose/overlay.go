package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lux-run/lux/pkg/config"
)

const (
	containerHostStateBase = "/run/lux/provider_host_state"
	containerSecretsPath   = "/run/lux/provider_secrets.env"
)

type serviceOverride struct {
	Environment []string `yaml:"environment,omitempty"`
	Volumes     []string `yaml:"volumes,omitempty"`
}

type runtimeOverride struct {
	Services map[string]*serviceOverride `yaml:"services"`
}

// Overlay is the result of generating one provider's runtime overlay.
type Overlay struct {
	OverrideFile string
	Warnings     []string
}

// GenerateProviderOverlay writes a compose fragment overriding the agent
// and harness services for one provider (§4.7 C7.2). tuiOverride, when
// non-empty, replaces the provider's configured tui command; the CLI's
// provider start path passes an empty override.
func GenerateProviderOverlay(runtimeDir, providerName string, provider config.Provider, home, tuiOverride string) (*Overlay, error) {
	if err := os.MkdirAll(runtimeDir, 0o755); err != nil {
		return nil, fmt.Errorf("compose: create runtime dir: %w", err)
	}

	agent := &serviceOverride{}
	harness := &serviceOverride{}

	tuiCmd := provider.TUICommand
	if tuiOverride != "" {
		tuiCmd = tuiOverride
	}
	harness.Environment = append(harness.Environment,
		fmt.Sprintf("HARNESS_TUI_CMD=%s", tuiCmd),
		fmt.Sprintf("HARNESS_RUN_CMD_TEMPLATE=%s", provider.RunTemplate),
	)

	agent.Environment = append(agent.Environment,
		fmt.Sprintf("LUX_PROVIDER=%s", providerName),
		fmt.Sprintf("LUX_AUTH_MODE=%s", provider.AuthMode),
		fmt.Sprintf("LUX_PROVIDER_MOUNT_HOST_STATE_IN_API_MODE=%t", provider.MountHostStateInAPIMode),
		fmt.Sprintf("LUX_PROVIDER_ENV_KEY=%s", provider.APIKeyEnvKey),
	)

	var warnings []string
	hostStateCount := 0
	shouldMountHostState := provider.AuthMode == config.AuthModeHostState || provider.MountHostStateInAPIMode
	if shouldMountHostState {
		for _, configured := range provider.HostStatePaths {
			hostPath, err := config.ExpandHome(configured, home)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("provider '%s': cannot expand host-state path %q: %v", providerName, configured, err))
				continue
			}
			if _, err := os.Stat(hostPath); err != nil {
				warnings = append(warnings, fmt.Sprintf("provider '%s': host-state path missing, skipping mount: %s", providerName, hostPath))
				continue
			}
			mountDst := fmt.Sprintf("%s/%d", containerHostStateBase, hostStateCount)
			agent.Volumes = append(agent.Volumes, fmt.Sprintf("%s:%s:ro", hostPath, mountDst))
			agent.Environment = append(agent.Environment,
				fmt.Sprintf("LUX_PROVIDER_HOST_STATE_SRC_%d=%s", hostStateCount, mountDst),
				fmt.Sprintf("LUX_PROVIDER_HOST_STATE_DST_%d=%s", hostStateCount, resolveHostStateDestination(hostPath, home)),
			)
			hostStateCount++
		}
		if hostStateCount == 0 {
			warnings = append(warnings, fmt.Sprintf("provider '%s': all configured host-state paths are missing", providerName))
		}
	}
	agent.Environment = append(agent.Environment, fmt.Sprintf("LUX_PROVIDER_HOST_STATE_COUNT=%d", hostStateCount))

	if provider.AuthMode == config.AuthModeAPIKey {
		secretsFile, err := config.ExpandHome(provider.APIKeySecretsFile, home)
		if err != nil {
			return nil, fmt.Errorf("compose: provider '%s': %w", providerName, err)
		}
		info, err := os.Stat(secretsFile)
		if err != nil {
			return nil, fmt.Errorf("compose: provider '%s': API secrets file not found: %s", providerName, secretsFile)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("compose: provider '%s': API secrets path is not a file: %s", providerName, secretsFile)
		}
		agent.Volumes = append(agent.Volumes, fmt.Sprintf("%s:%s:ro", secretsFile, containerSecretsPath))
		agent.Environment = append(agent.Environment, fmt.Sprintf("LUX_PROVIDER_SECRETS_FILE=%s", containerSecretsPath))
	} else {
		agent.Environment = append(agent.Environment, "LUX_PROVIDER_SECRETS_FILE=")
	}

	override := runtimeOverride{
		Services: map[string]*serviceOverride{
			"agent":   agent,
			"harness": harness,
		},
	}
	body, err := yaml.Marshal(override)
	if err != nil {
		return nil, fmt.Errorf("compose: marshal provider overlay: %w", err)
	}

	overrideFile := filepath.Join(runtimeDir, fmt.Sprintf("compose.provider.%s.yml", providerName))
	if err := os.WriteFile(overrideFile, body, 0o644); err != nil {
		return nil, fmt.Errorf("compose: write provider overlay: %w", err)
	}

	return &Overlay{OverrideFile: overrideFile, Warnings: warnings}, nil
}

// resolveHostStateDestination maps a host-state path into the container's
// agent home, preserving its position relative to $HOME when possible.
func resolveHostStateDestination(hostPath, home string) string {
	if home != "" {
		if rel, err := filepath.Rel(home, hostPath); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.Join("/home/agent", rel)
		}
	}
	if filepath.IsAbs(hostPath) {
		return hostPath
	}
	return filepath.Join("/home/agent", hostPath)
}
