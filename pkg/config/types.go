package config

// CurrentVersion is the only config document version this build accepts.
const CurrentVersion = 2

// Document is the top-level configuration file (<config_dir>/config.yaml).
type Document struct {
	Version             int                 `yaml:"version"`
	Paths               Paths               `yaml:"paths"`
	Docker              Docker              `yaml:"docker"`
	Harness             Harness             `yaml:"harness"`
	Collector           Collector           `yaml:"collector"`
	RuntimeControlPlane RuntimeControlPlane `yaml:"runtime_control_plane"`
	Providers           map[string]Provider `yaml:"providers"`
}

// Paths names the three path-class roots §3/§4.3 enforce invariants over.
type Paths struct {
	TrustedRoot   string `yaml:"trusted_root"`
	LogRoot       string `yaml:"log_root"`
	WorkspaceRoot string `yaml:"workspace_root"`
}

// Docker carries the project name used when composing `docker compose`
// invocations (C7).
type Docker struct {
	ProjectName string `yaml:"project_name"`
}

// Harness is the agent harness's own API surface configuration.
type Harness struct {
	APIHost  string `yaml:"api_host"`
	APIPort  int    `yaml:"api_port"`
	APIToken string `yaml:"api_token"`
}

// Collector configures the idle-timeout and rotation policy the scheduler
// (C6) enforces.
type Collector struct {
	AutoStart      bool `yaml:"auto_start"`
	IdleTimeoutMin int  `yaml:"idle_timeout_min"`
	RotateEveryMin int  `yaml:"rotate_every_min"`
}

// RuntimeControlPlane configures the supervisor's unix socket (C5).
type RuntimeControlPlane struct {
	SocketPath string `yaml:"socket_path"`
	SocketGID  *int   `yaml:"socket_gid,omitempty"`
}

// AuthMode enumerates how a provider authenticates inside its container.
type AuthMode string

const (
	AuthModeAPIKey    AuthMode = "api_key"
	AuthModeHostState AuthMode = "host_state"
)

// Provider is one entry in the providers map: name -> record.
type Provider struct {
	AuthMode                AuthMode  `yaml:"auth_mode"`
	MountHostStateInAPIMode bool      `yaml:"mount_host_state_in_api_mode"`
	TUICommand              string    `yaml:"tui_command"`
	RunTemplate             string    `yaml:"run_template"`
	APIKeySecretsFile       string    `yaml:"api_key_secrets_file"`
	APIKeyEnvKey            string    `yaml:"api_key_env_key"`
	HostStatePaths          []string  `yaml:"host_state_paths"`
	Ownership               Ownership `yaml:"ownership"`
}

// Ownership attributes syscalls to a provider by comm name.
type Ownership struct {
	RootComm []string `yaml:"root_comm"`
}
