package sensor

import (
	"fmt"

	"github.com/cilium/ebpf"
)

// Map names, matching the SEC(".maps") declarations in bpf/sensor.c — the loader
// looks maps up by name after loading the collection.
const (
	MapConnectArgs = "connect_args"
	MapSendArgs    = "send_args"
	MapRecvArgs    = "recv_args"
	MapEvents      = "events"
	MapEventBuf    = "event_buf"
)

// Per-PID correlation table capacities (§3): connect-args is sized for a
// shallower call depth than send/recv since connect() rarely overlaps
// itself within one thread group, sendto/recvfrom are far more frequent.
const (
	ConnectArgsMaxEntries = 1024
	SendArgsMaxEntries    = 4096
	RecvArgsMaxEntries    = 4096

	// EventsRingBufSize is 1<<24 bytes (16 MiB), matching bpf/sensor.c.
	EventsRingBufSize = 1 << 24
)

// Programs names of the six tracepoint handlers bpf/sensor.c defines.
const (
	ProgSysEnterConnect  = "sys_enter_connect"
	ProgSysExitConnect   = "sys_exit_connect"
	ProgSysEnterSendto   = "sys_enter_sendto"
	ProgSysExitSendto    = "sys_exit_sendto"
	ProgSysEnterRecvfrom = "sys_enter_recvfrom"
	ProgSysExitRecvfrom  = "sys_exit_recvfrom"
)

// tracepointTargets maps each program name to the kernel tracepoint
// category/name pair it attaches to.
var tracepointTargets = map[string][2]string{
	ProgSysEnterConnect:  {"syscalls", "sys_enter_connect"},
	ProgSysExitConnect:   {"syscalls", "sys_exit_connect"},
	ProgSysEnterSendto:   {"syscalls", "sys_enter_sendto"},
	ProgSysExitSendto:    {"syscalls", "sys_exit_sendto"},
	ProgSysEnterRecvfrom: {"syscalls", "sys_enter_recvfrom"},
	ProgSysExitRecvfrom:  {"syscalls", "sys_exit_recvfrom"},
}

// expectedMapSpecs describes the maps bpf/sensor.c declares, used to sanity
// check a loaded CollectionSpec before attaching any program — the loader
// refuses to proceed if the compiled object doesn't match this shape, since
// a mismatch usually means the .o was built from a different sensor.c.
func expectedMapSpecs() map[string]ebpf.MapType {
	return map[string]ebpf.MapType{
		MapConnectArgs: ebpf.Hash,
		MapSendArgs:    ebpf.Hash,
		MapRecvArgs:    ebpf.Hash,
		MapEvents:      ebpf.RingBuf,
		MapEventBuf:    ebpf.PerCPUArray,
	}
}

// VerifySpec checks that a CollectionSpec loaded from the compiled
// sensor.o declares the maps and programs this package expects.
func VerifySpec(spec *ebpf.CollectionSpec) error {
	for name, wantType := range expectedMapSpecs() {
		m, ok := spec.Maps[name]
		if !ok {
			return fmt.Errorf("sensor: compiled object missing map %q", name)
		}
		if m.Type != wantType {
			return fmt.Errorf("sensor: map %q has type %s, want %s", name, m.Type, wantType)
		}
	}
	for name := range tracepointTargets {
		if _, ok := spec.Programs[name]; !ok {
			return fmt.Errorf("sensor: compiled object missing program %q", name)
		}
	}
	return nil
}
