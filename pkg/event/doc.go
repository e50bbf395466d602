// Package event implements the userspace event loader/decoder (C2): it
// drains the kernel sensor's ring buffer, decodes fixed-layout records into
// the five ebpf.v1 JSON shapes, resolves parent pids, reconstructs
// wall-clock timestamps, and appends one JSON object per line to the
// active run's raw sink.
package event
