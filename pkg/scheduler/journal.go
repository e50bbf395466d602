package scheduler

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lux-run/lux/pkg/runtimestate"
)

// appendJournal appends ev as one JSON line to the durable events
// journal (§4.6: "All emitted events are appended to an events journal
// (JSON lines)... and pushed into the in-memory ring").
func appendJournal(path string, ev runtimestate.Event) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("scheduler: open journal %s: %w", path, err)
	}
	defer f.Close()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("scheduler: marshal event: %w", err)
	}
	data = append(data, '\n')

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("scheduler: write journal %s: %w", path, err)
	}
	return nil
}
