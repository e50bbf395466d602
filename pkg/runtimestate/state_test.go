package runtimestate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmitEventAssignsMonotonicIDs(t *testing.T) {
	s := New()
	e1 := s.EmitEvent(EventRunStarted, "test", nil)
	e2 := s.EmitEvent(EventRunStopped, "test", nil)
	require.Equal(t, e1.ID+1, e2.ID)
}

func TestEventRingEvictsOldest(t *testing.T) {
	s := New()
	for i := 0; i < maxEventRing+10; i++ {
		s.EmitEvent(EventRunStarted, "tick", nil)
	}
	events, _ := s.EventsSince(0)
	require.Len(t, events, maxEventRing)
	require.Equal(t, uint64(11), events[0].ID)
}

func TestWarningRingEvictsOldest(t *testing.T) {
	s := New()
	for i := 0; i < maxWarningRing+5; i++ {
		s.EmitWarning("degraded", "detail")
	}
	warnings := s.Warnings()
	require.Len(t, warnings, maxWarningRing)
}

func TestEventsSinceFiltersByID(t *testing.T) {
	s := New()
	s.EmitEvent(EventRunStarted, "a", nil)
	second := s.EmitEvent(EventRunStopped, "b", nil)
	events, _ := s.EventsSince(second.ID - 1)
	require.Len(t, events, 1)
	require.Equal(t, second.ID, events[0].ID)
}

func TestShutdownFlag(t *testing.T) {
	s := New()
	require.False(t, s.Shutdown())
	s.SetShutdown(true)
	require.True(t, s.Shutdown())
}

func TestRotationPendingFlag(t *testing.T) {
	s := New()
	require.False(t, s.RotationPending())
	s.SetRotationPending(true)
	require.True(t, s.RotationPending())
}

func TestTouchProviderActivity(t *testing.T) {
	s := New()
	require.True(t, s.LastProviderActivity().IsZero())
	now := time.Now()
	s.TouchProviderActivity(now)
	require.WithinDuration(t, now, s.LastProviderActivity(), time.Second)
}

func TestWaitForMutationWakesOnEmit(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	wg.Add(1)
	var woke bool
	go func() {
		defer wg.Done()
		woke = s.WaitForMutation(2 * time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	s.EmitEvent(EventRunStarted, "wake", nil)
	wg.Wait()
	require.True(t, woke)
}

func TestWaitForMutationTimesOut(t *testing.T) {
	s := New()
	woke := s.WaitForMutation(50 * time.Millisecond)
	require.False(t, woke)
}
