package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lux-run/lux/pkg/sensor"
)

func fakePPID(pid uint32) (uint32, error) {
	return pid - 1, nil
}

func TestRenderNetConnect(t *testing.T) {
	ev := sensor.Event{
		EventType: uint8(sensor.EventNetConnect),
		Family:    uint8(sensor.FamilyInet),
		Protocol:  uint8(sensor.ProtocolTCP),
		PID:       100,
		DstPort:   443,
	}
	copy(ev.DstAddr[:4], []byte{93, 184, 216, 34})

	r, err := Render(ev, fakePPID)
	require.NoError(t, err)
	require.Equal(t, "net_connect", r.EventType)
	require.Equal(t, uint32(99), r.PPID)
	require.NotNil(t, r.Net)
	require.Equal(t, "93.184.216.34", r.Net.DstIP)
	require.Equal(t, "tcp", r.Net.Protocol)
	require.Equal(t, "ipv4", r.Net.Family)
	require.Nil(t, r.Net.Bytes)
}

func TestRenderNetSendIncludesBytes(t *testing.T) {
	ev := sensor.Event{
		EventType: uint8(sensor.EventNetSend),
		Family:    uint8(sensor.FamilyInet),
		Protocol:  uint8(sensor.ProtocolUDP),
		Bytes:     53,
	}
	r, err := Render(ev, fakePPID)
	require.NoError(t, err)
	require.NotNil(t, r.Net.Bytes)
	require.Equal(t, uint32(53), *r.Net.Bytes)
}

func TestRenderUnixConnectAbstract(t *testing.T) {
	ev := sensor.Event{
		EventType: uint8(sensor.EventUnixConnect),
		Family:    uint8(sensor.FamilyUnix),
	}
	path := "\x00docker.sock"
	ev.UnixPathLen = uint16(len(path))
	copy(ev.UnixPath[:], path)

	r, err := Render(ev, fakePPID)
	require.NoError(t, err)
	require.NotNil(t, r.Unix)
	require.True(t, r.Unix.Abstract)
	require.Equal(t, "docker.sock", r.Unix.Path)
}

func TestRenderUnknownEventTypeReturnsNil(t *testing.T) {
	ev := sensor.Event{EventType: 99}
	r, err := Render(ev, fakePPID)
	require.NoError(t, err)
	require.Nil(t, r)
}
