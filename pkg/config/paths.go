package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxSocketPathLen is the invariant from §3: a unix socket path longer
// than this (the kernel's sun_path limit minus headroom) falls back to a
// deterministic hash-addressed path under tmp.
const maxSocketPathLen = 100

// ExpandHome resolves a leading "~" or "~/..." against home. Any other
// tilde-prefixed form (e.g. "~other/...") is rejected — §4.3 only
// recognizes the bare "~" token.
func ExpandHome(path, home string) (string, error) {
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("config: unsupported tilde expansion in %q", path)
	}
	return path, nil
}

// Canonicalize resolves path to an absolute, symlink-free form. When path
// (or some suffix of it) does not exist yet, it walks up to the nearest
// existing ancestor, canonicalizes that, and reappends the non-existent
// tail — §4.3's rule for validating paths that are about to be created.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("config: absolute path for %q: %w", path, err)
	}

	var tail []string
	current := abs
	for {
		if _, err := os.Lstat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", fmt.Errorf("config: resolve symlinks for %q: %w", current, err)
			}
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("config: no existing ancestor for %q", abs)
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}

// IsSubPath reports whether child is parent itself or nested under it.
func IsSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..")
}

// ValidatePathInvariants enforces §3/§4.3's path-class battery:
// workspace_root and log_root must be absolute existing paths,
// workspace_root ⊂ home, log_root ⊄ home, and neither may be a prefix of
// the other.
func ValidatePathInvariants(home, workspaceRoot, logRoot string) error {
	if !filepath.IsAbs(home) {
		return fmt.Errorf("config: HOME %q is not absolute", home)
	}
	if _, err := os.Stat(home); err != nil {
		return fmt.Errorf("config: HOME %q does not exist: %w", home, err)
	}

	for name, p := range map[string]string{"workspace_root": workspaceRoot, "log_root": logRoot} {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("config: %s %q is not absolute", name, p)
		}
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config: %s %q does not exist: %w", name, p, err)
		}
	}

	if !IsSubPath(home, workspaceRoot) {
		return fmt.Errorf("config: workspace_root %q must be inside HOME %q", workspaceRoot, home)
	}
	if IsSubPath(home, logRoot) {
		return fmt.Errorf("config: log_root %q must be outside HOME %q", logRoot, home)
	}
	if IsSubPath(workspaceRoot, logRoot) || IsSubPath(logRoot, workspaceRoot) {
		return fmt.Errorf("config: workspace_root %q and log_root %q must not overlap", workspaceRoot, logRoot)
	}
	return nil
}

// ResolveSocketPath returns socketPath unchanged if it fits the unix
// socket path length budget; otherwise it falls back to a deterministic,
// short, hash-addressed path under tmpDir so two resolutions of the same
// input always agree.
func ResolveSocketPath(socketPath, tmpDir string) string {
	if len(socketPath) <= maxSocketPathLen {
		return socketPath
	}
	sum := sha256.Sum256([]byte(socketPath))
	name := fmt.Sprintf("lux-%s.sock", hex.EncodeToString(sum[:8]))
	return filepath.Join(tmpDir, name)
}
