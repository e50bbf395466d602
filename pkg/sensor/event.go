package sensor

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed buffer capacities shared with bpf/sensor.c.
const (
	CommLen      = 16
	UnixPathMax  = 108
	DNSPayloadMax = 512
)

// EventType enumerates the kinds of records the kernel sensor emits.
type EventType uint8

const (
	EventNetConnect  EventType = 1
	EventNetSend     EventType = 2
	EventDNSQuery    EventType = 3
	EventDNSResponse EventType = 4
	EventUnixConnect EventType = 5
)

func (t EventType) String() string {
	switch t {
	case EventNetConnect:
		return "net_connect"
	case EventNetSend:
		return "net_send"
	case EventDNSQuery:
		return "dns_query"
	case EventDNSResponse:
		return "dns_response"
	case EventUnixConnect:
		return "unix_connect"
	default:
		return "unknown"
	}
}

// Family enumerates the address families the sensor parses in kernel
// context; anything else is rejected before an args entry is stored.
type Family uint8

const (
	FamilyUnix Family = 1
	FamilyInet Family = 2
	FamilyInet6 Family = 10
)

func (f Family) String() string {
	switch f {
	case FamilyUnix:
		return "unix"
	case FamilyInet:
		return "inet"
	case FamilyInet6:
		return "inet6"
	default:
		return "unknown"
	}
}

// Protocol enumerates the transport protocols the sensor records.
type Protocol uint8

const (
	ProtocolTCP     Protocol = 6
	ProtocolUDP     Protocol = 17
	ProtocolUnknown Protocol = 0
)

func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	default:
		return "unknown"
	}
}

// Event is the fixed-layout, little-endian, POD record the kernel sensor
// writes to the ring buffer. Field order and widths must match
// bpf/sensor.c's `struct event` exactly — this is the wire contract between
// kernel and userspace, there is no version negotiation.
type Event struct {
	EventType     uint8
	Family        uint8
	Protocol      uint8
	_             uint8
	PID           uint32
	UID           uint32
	GID           uint32
	CgroupID      uint64
	TS            uint64
	SyscallResult int64
	SrcAddr       [16]byte
	DstAddr       [16]byte
	SrcPort       uint16
	DstPort       uint16
	Bytes         uint32
	Comm          [CommLen]byte
	UnixPathLen   uint16
	UnixPath      [UnixPathMax]byte
	DNSPayloadLen uint16
	DNSPayload    [DNSPayloadMax]byte
}

// Size is the fixed on-the-wire size of Event in bytes, used by the ring
// buffer reader to validate record boundaries.
const Size = 1 + 1 + 1 + 1 + 4 + 4 + 4 + 8 + 8 + 8 + 16 + 16 + 2 + 2 + 4 + CommLen + 2 + UnixPathMax + 2 + DNSPayloadMax

// Decode parses a fixed-size little-endian record drained from the ring
// buffer. All variable-length fields (unix path, DNS payload) carry an
// explicit length that MUST be honored by callers — bytes beyond the
// declared length are uninitialized kernel scratch and must be ignored.
func Decode(raw []byte) (Event, error) {
	var ev Event
	if len(raw) < Size {
		return ev, fmt.Errorf("sensor: short record: got %d bytes, want %d", len(raw), Size)
	}
	if err := binary.Read(bytes.NewReader(raw[:Size]), binary.LittleEndian, &ev); err != nil {
		return ev, fmt.Errorf("sensor: decode record: %w", err)
	}
	if ev.UnixPathLen > UnixPathMax {
		return ev, fmt.Errorf("sensor: unix_path_len %d exceeds buffer %d", ev.UnixPathLen, UnixPathMax)
	}
	if ev.DNSPayloadLen > DNSPayloadMax {
		return ev, fmt.Errorf("sensor: dns_payload_len %d exceeds buffer %d", ev.DNSPayloadLen, DNSPayloadMax)
	}
	return ev, nil
}

// CommString trims the comm buffer at its first NUL.
func (e Event) CommString() string {
	return cString(e.Comm[:])
}

// UnixPathBytes returns exactly the declared unix path bytes, honoring
// UnixPathLen and never reading past it.
func (e Event) UnixPathBytes() []byte {
	n := int(e.UnixPathLen)
	if n > UnixPathMax {
		n = UnixPathMax
	}
	return e.UnixPath[:n]
}

// DNSPayloadBytes returns exactly the declared DNS payload bytes, honoring
// DNSPayloadLen and never reading past it.
func (e Event) DNSPayloadBytes() []byte {
	n := int(e.DNSPayloadLen)
	if n > DNSPayloadMax {
		n = DNSPayloadMax
	}
	return e.DNSPayload[:n]
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
