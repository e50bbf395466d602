package sensor

import (
	"fmt"
	"os"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/rs/zerolog"

	"github.com/lux-run/lux/pkg/log"
)

// Sensor owns the loaded collection, the attached tracepoint links, and the
// ring buffer reader. Lifecycle: Load verifies the compiled object's shape
// and loads its maps and programs (nothing is pinned), Attach links all
// six tracepoints, Close detaches everything and releases the ring buffer
// reader. There is no partial
// retry — a failed Attach leaves nothing attached and the caller should
// treat the sensor as unusable.
type Sensor struct {
	coll    *ebpf.Collection
	links   []link.Link
	reader  *ringbuf.Reader
	logger  zerolog.Logger
}

// Load reads a compiled sensor.o (produced out-of-band by clang from
// bpf/sensor.c) and verifies it declares the maps and programs this
// package expects.
func Load(objectPath string) (*Sensor, error) {
	logger := log.WithComponent("sensor")

	f, err := os.Open(objectPath)
	if err != nil {
		return nil, fmt.Errorf("sensor: open object %s: %w", objectPath, err)
	}
	defer f.Close()

	spec, err := ebpf.LoadCollectionSpecFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("sensor: parse object %s: %w", objectPath, err)
	}
	if err := VerifySpec(spec); err != nil {
		return nil, err
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("sensor: load collection: %w", err)
	}

	rd, err := ringbuf.NewReader(coll.Maps[MapEvents])
	if err != nil {
		coll.Close()
		return nil, fmt.Errorf("sensor: open ring buffer reader: %w", err)
	}

	return &Sensor{coll: coll, reader: rd, logger: logger}, nil
}

// Attach links each of the six tracepoint programs. If any attach fails,
// everything already attached is detached before returning the error —
// the sensor is all-six-or-none.
func (s *Sensor) Attach() error {
	for name, target := range tracepointTargets {
		prog := s.coll.Programs[name]
		l, err := link.Tracepoint(target[0], target[1], prog, nil)
		if err != nil {
			s.detachAll()
			return fmt.Errorf("sensor: attach %s/%s: %w", target[0], target[1], err)
		}
		s.links = append(s.links, l)
		s.logger.Debug().Str("program", name).Str("tracepoint", target[0]+"/"+target[1]).Msg("tracepoint attached")
	}
	s.logger.Info().Int("programs", len(s.links)).Msg("sensor attached")
	return nil
}

// Read blocks for the next ring buffer record, returning the raw decoded
// Event. Returns ringbuf.ErrClosed once Close has been called, which
// callers should treat as a clean shutdown signal, not an error to log.
func (s *Sensor) Read() (Event, error) {
	rec, err := s.reader.Read()
	if err != nil {
		return Event{}, err
	}
	return Decode(rec.RawSample)
}

// RingBufferSize reports the configured capacity of the events ring
// buffer; cmd/lux-collector logs it at startup. The sensor never reports
// a drop count, and the decoder does not track one against this capacity.
func (s *Sensor) RingBufferSize() int {
	return EventsRingBufSize
}

func (s *Sensor) detachAll() {
	for _, l := range s.links {
		_ = l.Close()
	}
	s.links = nil
}

// Close detaches all tracepoints, closes the ring buffer reader, and
// releases the loaded collection. Safe to call once; a second call is a
// no-op beyond returning nil.
func (s *Sensor) Close() error {
	s.detachAll()
	if s.reader != nil {
		_ = s.reader.Close()
	}
	if s.coll != nil {
		s.coll.Close()
	}
	s.logger.Info().Msg("sensor detached")
	return nil
}
