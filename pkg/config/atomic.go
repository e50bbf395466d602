package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigMode and DefaultSecretMode are the caller-supplied default
// permissions §4.3 applies to a newly created file; an existing target's
// mode is preserved across a rewrite instead.
const (
	DefaultConfigMode = 0o644
	DefaultSecretMode = 0o600
)

// AtomicWrite writes content to a temp file beside target and renames it
// into place — the rename is the only mutation visible to readers, so a
// concurrent reader always sees either the old or the new content, never
// a torn file (§5, §9). If target already exists its mode is preserved;
// otherwise defaultMode is applied.
func AtomicWrite(target string, content []byte, defaultMode os.FileMode) error {
	dir := filepath.Dir(target)
	mode := defaultMode
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d.%d", filepath.Base(target), os.Getpid(), time.Now().UnixMilli()))

	if err := os.WriteFile(tmp, content, mode); err != nil {
		return fmt.Errorf("config: write temp file %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: chmod temp file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: rename %s to %s: %w", tmp, target, err)
	}
	return nil
}
