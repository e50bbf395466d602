package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates the config document at path. It rejects any
// version other than CurrentVersion and any key the schema does not know
// about (yaml.v3's KnownFields), then runs the path-class invariant
// battery against home.
func Load(path, home string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw, home)
}

// Parse validates an in-memory config document; Load is a thin wrapper
// around it for the common on-disk case.
func Parse(raw []byte, home string) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("config: unsupported version %d, want %d", doc.Version, CurrentVersion)
	}

	workspaceRoot, err := Canonicalize(doc.Paths.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("config: workspace_root: %w", err)
	}
	logRoot, err := Canonicalize(doc.Paths.LogRoot)
	if err != nil {
		return nil, fmt.Errorf("config: log_root: %w", err)
	}
	if err := ValidatePathInvariants(home, workspaceRoot, logRoot); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Marshal renders doc as YAML bytes for a fresh config file (used by
// `config init`, which never overwrites an existing file — see
// AtomicWrite's mode-preservation and the idempotence property in §8).
func Marshal(doc *Document) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}
