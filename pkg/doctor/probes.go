package doctor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const probeTimeout = 5 * time.Second

// CommandRunner reports whether `name args...` exits zero. Exposed for
// tests to stub out real `docker` invocations.
type CommandRunner func(name string, args ...string) bool

// BinaryLookup reports whether name resolves on PATH.
type BinaryLookup func(name string) bool

func defaultCommandRunner(name string, args ...string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run() == nil
}

func defaultBinaryLookup(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// dirWritable performs a create+write+delete probe against dir, matching
// §4.9's log_sink_permissions check.
func dirWritable(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe := filepath.Join(dir, ".lux_doctor_probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o600); err != nil {
		return false
	}
	defer os.Remove(probe)
	return true
}

// pathExists reports whether path exists on the host, regardless of type.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
