// Package sensor describes the kernel-side syscall sensor (C1): the fixed
// event record layout shared with the eBPF program in bpf/sensor.c, the map
// and tracepoint-program specs used to load it, and the attach/detach
// lifecycle. The sensor itself runs in kernel context and is compiled
// separately by clang; this package is the Go side of that boundary.
package sensor
