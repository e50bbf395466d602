package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLifecycleTargetCollectorOnly(t *testing.T) {
	target, err := resolveLifecycleTarget("", true)
	require.NoError(t, err)
	require.True(t, target.collectorOnly)
	require.Empty(t, target.provider)
}

func TestResolveLifecycleTargetProvider(t *testing.T) {
	target, err := resolveLifecycleTarget("claude", false)
	require.NoError(t, err)
	require.False(t, target.collectorOnly)
	require.Equal(t, "claude", target.provider)
}

func TestResolveLifecycleTargetRequiresOneOf(t *testing.T) {
	_, err := resolveLifecycleTarget("", false)
	require.Error(t, err)
	require.ErrorContains(t, err, "--provider")
	require.ErrorContains(t, err, "--collector-only")
}
