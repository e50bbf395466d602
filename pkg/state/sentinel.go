package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lux-run/lux/pkg/config"
)

const (
	activeRunFile      = ".active_run.json"
	activeProviderFile = ".active_provider.json"
)

func activeRunPath(logRoot string) string      { return filepath.Join(logRoot, activeRunFile) }
func activeProviderPath(logRoot string) string { return filepath.Join(logRoot, activeProviderFile) }

// LoadActiveRun reads the active-run sentinel, returning (nil, nil) when
// it does not exist.
func LoadActiveRun(logRoot string) (*ActiveRunState, error) {
	data, err := os.ReadFile(activeRunPath(logRoot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read active-run sentinel: %w", err)
	}
	var s ActiveRunState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("state: parse active-run sentinel: %w", err)
	}
	return &s, nil
}

// WriteActiveRun atomically writes the active-run sentinel.
func WriteActiveRun(logRoot string, s ActiveRunState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal active-run sentinel: %w", err)
	}
	return config.AtomicWrite(activeRunPath(logRoot), append(data, '\n'), config.DefaultConfigMode)
}

// ClearActiveRun removes the active-run sentinel; it is not an error if
// it is already absent.
func ClearActiveRun(logRoot string) error {
	if err := os.Remove(activeRunPath(logRoot)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("state: remove active-run sentinel: %w", err)
	}
	return nil
}

// LoadActiveProvider reads the active-provider sentinel, returning
// (nil, nil) when it does not exist.
func LoadActiveProvider(logRoot string) (*ActiveProviderState, error) {
	data, err := os.ReadFile(activeProviderPath(logRoot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: read active-provider sentinel: %w", err)
	}
	var s ActiveProviderState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("state: parse active-provider sentinel: %w", err)
	}
	return &s, nil
}

// WriteActiveProvider atomically writes the active-provider sentinel.
func WriteActiveProvider(logRoot string, s ActiveProviderState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal active-provider sentinel: %w", err)
	}
	return config.AtomicWrite(activeProviderPath(logRoot), append(data, '\n'), config.DefaultConfigMode)
}

// ClearActiveProvider removes the active-provider sentinel.
func ClearActiveProvider(logRoot string) error {
	if err := os.Remove(activeProviderPath(logRoot)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("state: remove active-provider sentinel: %w", err)
	}
	return nil
}
