package shim

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// marker identifies a script on disk as one this package manages, so
// install/uninstall never touch a binary a user placed there themselves.
const marker = "# lux-shim"

var scriptTemplate = template.Must(template.New("shim").Parse(
	"#!/usr/bin/env bash\n" + marker + "\nset -euo pipefail\nexec lux shim exec {{.Provider}} -- \"$@\"\n",
))

// DefaultProviders is installed when the caller names none explicitly.
var DefaultProviders = []string{"codex", "claude"}

// InstallResult reports one provider's install outcome.
type InstallResult struct {
	Provider string
	Path     string
}

// PathForProvider returns the launcher path for provider under binDir.
func PathForProvider(binDir, provider string) string {
	return filepath.Join(binDir, provider)
}

// IsManaged reports whether the file at path is a shim this package
// installed (carries the marker line), vs. some unrelated binary.
func IsManaged(path string) bool {
	body, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(body), marker)
}

// Install writes the launcher script for provider under binDir, refusing
// to overwrite a pre-existing file that isn't already a managed shim.
func Install(binDir, provider string) (*InstallResult, error) {
	path := PathForProvider(binDir, provider)

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("shim: %s is a directory", path)
		}
		if !IsManaged(path) {
			return nil, fmt.Errorf("shim: install would overwrite existing non-managed binary: %s", path)
		}
	}

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return nil, fmt.Errorf("shim: create bin dir: %w", err)
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, struct{ Provider string }{provider}); err != nil {
		return nil, fmt.Errorf("shim: render script: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o755); err != nil {
		return nil, fmt.Errorf("shim: write script: %w", err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("shim: chmod script: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("shim: install script: %w", err)
	}

	return &InstallResult{Provider: provider, Path: path}, nil
}

// Uninstall removes provider's launcher if it is a managed shim. Removing
// a non-existent or unmanaged path is a no-op, reported via removed=false.
func Uninstall(binDir, provider string) (removed bool, path string, err error) {
	path = PathForProvider(binDir, provider)
	if _, statErr := os.Stat(path); statErr != nil {
		return false, path, nil
	}
	if !IsManaged(path) {
		return false, path, nil
	}
	if err := os.Remove(path); err != nil {
		return false, path, fmt.Errorf("shim: remove %s: %w", path, err)
	}
	return true, path, nil
}

// StatusEntry reports one provider's current install state.
type StatusEntry struct {
	Provider  string
	Path      string
	Installed bool
}

// List reports the install status of each named provider.
func List(binDir string, providers []string) []StatusEntry {
	entries := make([]StatusEntry, 0, len(providers))
	for _, p := range providers {
		path := PathForProvider(binDir, p)
		_, statErr := os.Stat(path)
		entries = append(entries, StatusEntry{
			Provider:  p,
			Path:      path,
			Installed: statErr == nil && IsManaged(path),
		})
	}
	return entries
}

// NormalizeProviders returns DefaultProviders when providers is empty,
// else providers unchanged.
func NormalizeProviders(providers []string) []string {
	if len(providers) == 0 {
		out := make([]string, len(DefaultProviders))
		copy(out, DefaultProviders)
		return out
	}
	return providers
}
