package state

// ActiveRunState is the active-run sentinel (§3): its presence means a
// collector run currently owns the log sink.
type ActiveRunState struct {
	RunID         string `json:"run_id"`
	StartedAt     string `json:"started_at"`
	WorkspaceRoot string `json:"workspace_root,omitempty"`
}

// ActiveProviderState is the sibling active-provider sentinel. Its RunID
// must always equal the active-run sentinel's RunID whenever both exist.
type ActiveProviderState struct {
	Provider  string `json:"provider"`
	AuthMode  string `json:"auth_mode"`
	RunID     string `json:"run_id"`
	StartedAt string `json:"started_at"`
}

// CollectorPlaneState is one of the four states in the collector-plane
// lifecycle (§4.4).
type CollectorPlaneState int

const (
	CollectorAbsent CollectorPlaneState = iota
	CollectorStarting
	CollectorRunning
	CollectorStopping
)

func (s CollectorPlaneState) String() string {
	switch s {
	case CollectorAbsent:
		return "absent"
	case CollectorStarting:
		return "starting"
	case CollectorRunning:
		return "running"
	case CollectorStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ProviderPlaneState is one of the provider-plane lifecycle states.
type ProviderPlaneState int

const (
	ProviderNone ProviderPlaneState = iota
	ProviderStarting
	ProviderRunning
	ProviderStopping
)

func (s ProviderPlaneState) String() string {
	switch s {
	case ProviderNone:
		return "none"
	case ProviderStarting:
		return "starting"
	case ProviderRunning:
		return "running"
	case ProviderStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
