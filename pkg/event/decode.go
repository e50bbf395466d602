package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cilium/ebpf/ringbuf"
	"github.com/rs/zerolog"

	"github.com/lux-run/lux/pkg/log"
	"github.com/lux-run/lux/pkg/sensor"
)

// emptyPollInterval is how long the drain loop sleeps after a failed
// ring-buffer read (any error other than the reader being closed) before
// reading again; Sensor.Read blocks while the ring is empty.
const emptyPollInterval = 50 * time.Millisecond

// Decoder drains a Sensor's ring buffer and appends one rendered JSON
// object per line to a sink writer.
type Decoder struct {
	sensor *sensor.Sensor
	sink   io.Writer
	logger zerolog.Logger

	decoded uint64
	dropped uint64
}

// NewDecoder wires a loaded, attached Sensor to a sink writer (normally the
// run's collector/raw/ebpf.jsonl file opened in append mode).
func NewDecoder(s *sensor.Sensor, sink io.Writer) *Decoder {
	return &Decoder{
		sensor: s,
		sink:   sink,
		logger: log.WithComponent("decoder"),
	}
}

// Run drains the ring buffer until stop is closed or the sensor's reader
// returns a close error. Malformed records are logged and skipped — the
// decoder never stops on a bad record (§7).
func (d *Decoder) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		ev, err := d.sensor.Read()
		if err != nil {
			if isRingClosed(err) {
				return nil
			}
			d.logger.Warn().Err(err).Msg("ring buffer read failed")
			time.Sleep(emptyPollInterval)
			continue
		}

		if err := d.handle(ev); err != nil {
			d.logger.Warn().Err(err).Msg("dropping malformed record")
			d.dropped++
		}
	}
}

func (d *Decoder) handle(ev sensor.Event) error {
	rendered, err := Render(ev, ReadPPID)
	if err != nil {
		return err
	}
	if rendered == nil {
		return fmt.Errorf("event: unrecognized event_type %d", ev.EventType)
	}

	line, err := json.Marshal(rendered)
	if err != nil {
		return fmt.Errorf("event: marshal record: %w", err)
	}
	line = append(line, '\n')

	if _, err := d.sink.Write(line); err != nil {
		return fmt.Errorf("event: write sink: %w", err)
	}
	d.decoded++
	return nil
}

// Stats reports how many records this decoder has successfully rendered
// and how many it dropped for being malformed.
func (d *Decoder) Stats() (decoded, dropped uint64) {
	return d.decoded, d.dropped
}

func isRingClosed(err error) bool {
	return errors.Is(err, ringbuf.ErrClosed)
}
