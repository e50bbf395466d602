package event

import (
	"fmt"
	"net"

	"github.com/lux-run/lux/pkg/sensor"
)

// Rendered is the JSON shape written to the raw sink, one object per line.
// Exactly one of Net, DNS, Unix is populated, matching the event's kind.
type Rendered struct {
	SchemaVersion string `json:"schema_version"`
	TS            string `json:"ts"`
	EventType     string `json:"event_type"`
	PID           uint32 `json:"pid"`
	PPID          uint32 `json:"ppid"`
	UID           uint32 `json:"uid"`
	GID           uint32 `json:"gid"`
	Comm          string `json:"comm"`
	CgroupID      string `json:"cgroup_id"`
	SyscallResult int64  `json:"syscall_result"`

	Net  *NetFields  `json:"net,omitempty"`
	DNS  *DNSFields  `json:"dns,omitempty"`
	Unix *UnixFields `json:"unix,omitempty"`
}

// NetFields is the nested object for net_connect / net_send events.
type NetFields struct {
	Protocol string  `json:"protocol"`
	Family   string  `json:"family"`
	SrcIP    string  `json:"src_ip"`
	SrcPort  uint16  `json:"src_port"`
	DstIP    string  `json:"dst_ip"`
	DstPort  uint16  `json:"dst_port"`
	Bytes    *uint32 `json:"bytes,omitempty"`
}

// DNSFields is the nested object for dns_query / dns_response events.
type DNSFields struct {
	Transport  string   `json:"transport"`
	QueryName  string   `json:"query_name"`
	QueryType  string   `json:"query_type"`
	ServerIP   string   `json:"server_ip,omitempty"`
	ServerPort uint16   `json:"server_port,omitempty"`
	RCode      string   `json:"rcode,omitempty"`
	Answers    []string `json:"answers,omitempty"`
}

// UnixFields is the nested object for unix_connect events.
type UnixFields struct {
	Path     string `json:"path"`
	Abstract bool   `json:"abstract"`
	SockType string `json:"sock_type"`
}

const schemaVersion = "ebpf.v1"

// PPIDResolver resolves a pid's parent pid; swappable in tests.
type PPIDResolver func(pid uint32) (uint32, error)

// Render decodes a raw sensor event into its JSON shape. resolvePPID is
// normally ReadPPID (/proc/<pid>/stat); tests may substitute a fake.
// Returns (nil, nil) for an unrecognized event type — the decoder logs and
// continues rather than propagating an error, per §7's decoder policy.
func Render(ev sensor.Event, resolvePPID PPIDResolver) (*Rendered, error) {
	ppid, err := resolvePPID(ev.PID)
	if err != nil {
		ppid = 0
	}

	r := &Rendered{
		SchemaVersion: schemaVersion,
		TS:            formatTS(ev.TS),
		PID:           ev.PID,
		PPID:          ppid,
		UID:           ev.UID,
		GID:           ev.GID,
		Comm:          ev.CommString(),
		CgroupID:      fmt.Sprintf("0x%016x", ev.CgroupID),
		SyscallResult: ev.SyscallResult,
	}

	switch sensor.EventType(ev.EventType) {
	case sensor.EventNetConnect:
		r.EventType = "net_connect"
		r.Net = &NetFields{
			Protocol: protocolString(ev.Protocol),
			Family:   familyString(ev.Family),
			SrcIP:    addrString(ev.Family, ev.SrcAddr),
			SrcPort:  ev.SrcPort,
			DstIP:    addrString(ev.Family, ev.DstAddr),
			DstPort:  ev.DstPort,
		}
	case sensor.EventNetSend:
		r.EventType = "net_send"
		bytes := ev.Bytes
		r.Net = &NetFields{
			Protocol: protocolString(ev.Protocol),
			Family:   familyString(ev.Family),
			SrcIP:    addrString(ev.Family, ev.SrcAddr),
			SrcPort:  ev.SrcPort,
			DstIP:    addrString(ev.Family, ev.DstAddr),
			DstPort:  ev.DstPort,
			Bytes:    &bytes,
		}
	case sensor.EventDNSQuery:
		r.EventType = "dns_query"
		parsed := ParseDNS(ev.DNSPayloadBytes())
		r.DNS = &DNSFields{
			Transport:  "udp",
			QueryName:  parsed.QueryName,
			QueryType:  parsed.QueryType,
			ServerIP:   addrString(ev.Family, ev.DstAddr),
			ServerPort: ev.DstPort,
		}
	case sensor.EventDNSResponse:
		r.EventType = "dns_response"
		parsed := ParseDNS(ev.DNSPayloadBytes())
		r.DNS = &DNSFields{
			Transport: "udp",
			QueryName: parsed.QueryName,
			QueryType: parsed.QueryType,
			RCode:     parsed.RCode,
			Answers:   parsed.Answers,
		}
	case sensor.EventUnixConnect:
		r.EventType = "unix_connect"
		path, abstractSock := unixPath(ev)
		r.Unix = &UnixFields{
			Path:     path,
			Abstract: abstractSock,
			SockType: "stream",
		}
	default:
		return nil, nil
	}

	return r, nil
}

func protocolString(p uint8) string {
	switch sensor.Protocol(p) {
	case sensor.ProtocolTCP:
		return "tcp"
	case sensor.ProtocolUDP:
		return "udp"
	default:
		return "unknown"
	}
}

func familyString(f uint8) string {
	switch sensor.Family(f) {
	case sensor.FamilyInet:
		return "ipv4"
	case sensor.FamilyInet6:
		return "ipv6"
	default:
		return "unknown"
	}
}

func addrString(family uint8, addr [16]byte) string {
	switch sensor.Family(family) {
	case sensor.FamilyInet:
		return net.IPv4(addr[0], addr[1], addr[2], addr[3]).String()
	case sensor.FamilyInet6:
		return net.IP(addr[:]).String()
	default:
		return ""
	}
}

// unixPath returns the decoded unix socket path and whether it is in the
// abstract namespace (leading NUL byte, §4.1).
func unixPath(ev sensor.Event) (string, bool) {
	n := int(ev.UnixPathLen)
	if n == 0 {
		return "", false
	}
	buf := ev.UnixPath[:]
	if buf[0] == 0 {
		// n counts the leading NUL selector byte itself, so the
		// abstract name content is the remaining n-1 bytes.
		end := n
		if end > sensor.UnixPathMax {
			end = sensor.UnixPathMax
		}
		return string(buf[1:end]), true
	}
	end := n
	if end > sensor.UnixPathMax {
		end = sensor.UnixPathMax
	}
	return string(buf[:end]), false
}
