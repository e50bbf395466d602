package event

import (
	"time"

	"golang.org/x/sys/unix"
)

// formatTS reconstructs a wall-clock RFC3339 timestamp from a monotonic
// event timestamp (ns), per §4.2: now_wall - (now_mono - event_ts).
func formatTS(eventTS uint64) string {
	nowWall := time.Now()
	nowMono := monotonicNowNs()

	eventWall := nowWall
	if nowMono >= eventTS {
		eventWall = nowWall.Add(-time.Duration(nowMono - eventTS))
	}
	return eventWall.UTC().Format(time.RFC3339)
}

func monotonicNowNs() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return uint64(ts.Sec)*1_000_000_000 + uint64(ts.Nsec)
}
