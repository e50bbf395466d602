package config

import "runtime"

// DefaultSocketPath is left empty in a fresh document; the effective
// socket path is computed at runtime by ResolveSocketPath against the
// config directory (§4.3).
const DefaultSocketPath = ""

// DefaultPathsForOS returns the stock log_root/workspace_root pair for
// goos, matching the per-platform defaults a fresh install ships with.
// workspace_root is the user's home directory on every supported OS;
// only log_root varies, since it often needs to live somewhere with
// more generous disk/permission headroom than $HOME.
func DefaultPathsForOS(goos, home string) Paths {
	logRoot := "/var/lib/lux/logs"
	if goos == "darwin" {
		logRoot = "/Users/Shared/Lux/logs"
	}
	return Paths{
		TrustedRoot:   home,
		LogRoot:       logRoot,
		WorkspaceRoot: home,
	}
}

// DefaultProviders returns the two providers a fresh install ships with,
// matching the codex/claude defaults baked into the reference CLI.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		"codex": {
			AuthMode:                AuthModeAPIKey,
			MountHostStateInAPIMode: false,
			TUICommand:              "codex -C /work -s danger-full-access",
			RunTemplate:             "codex -C /work -s danger-full-access exec {prompt}",
			APIKeySecretsFile:       "~/.config/lux/secrets/codex.env",
			APIKeyEnvKey:            "OPENAI_API_KEY",
			HostStatePaths:          []string{"~/.codex/auth.json", "~/.codex/skills"},
			Ownership:               Ownership{RootComm: []string{"codex"}},
		},
		"claude": {
			AuthMode:                AuthModeHostState,
			MountHostStateInAPIMode: false,
			TUICommand:              "claude",
			RunTemplate:             "claude -p {prompt}",
			APIKeySecretsFile:       "~/.config/lux/secrets/claude.env",
			APIKeyEnvKey:            "ANTHROPIC_API_KEY",
			HostStatePaths:          []string{"~/.claude.json", "~/.claude", "~/.config/claude-code/auth.json"},
			Ownership:               Ownership{RootComm: []string{"claude"}},
		},
	}
}

// Default builds a fresh Document for `config init`, using home to seed
// the per-OS path defaults for runtime.GOOS. Callers needing a specific
// OS's path defaults (tests, cross-compilation) call DefaultPathsForOS,
// which takes goos explicitly.
func Default(home string) *Document {
	return &Document{
		Version: CurrentVersion,
		Paths:   DefaultPathsForOS(runtime.GOOS, home),
		Docker:  Docker{ProjectName: "lux"},
		Harness: Harness{APIHost: "127.0.0.1", APIPort: 8081, APIToken: ""},
		Collector: Collector{
			AutoStart:      true,
			IdleTimeoutMin: 10080,
			RotateEveryMin: 1440,
		},
		RuntimeControlPlane: RuntimeControlPlane{SocketPath: DefaultSocketPath},
		Providers:           DefaultProviders(),
	}
}
