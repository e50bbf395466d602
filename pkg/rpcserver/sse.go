package rpcserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const sseWaitTimeout = 15 * time.Second

// handleEvents streams the event ring as server-sent events, honoring a
// Last-Event-ID header or last_event_id query parameter for resume, and
// emitting a keepalive comment whenever no new event arrives within
// sseWaitTimeout (§4.5).
func (s *Server) handleEvents(conn net.Conn, req *request) {
	lastID := parseLastEventID(req)

	head := "HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nCache-Control: no-cache\r\nConnection: keep-alive\r\n\r\n"
	if _, err := io.WriteString(conn, head); err != nil {
		return
	}

	for {
		if s.deps.State.Shutdown() {
			return
		}

		events, skipped := s.deps.State.EventsSince(lastID)
		if skipped {
			writeSSEComment(conn, "gap: resuming from oldest retained event")
		}
		if len(events) > 0 {
			for _, ev := range events {
				if err := writeSSEEvent(conn, ev.ID, ev); err != nil {
					return
				}
				lastID = ev.ID
			}
			continue
		}

		if !s.deps.State.WaitForMutation(sseWaitTimeout) {
			if err := writeSSEComment(conn, "keepalive"); err != nil {
				return
			}
		}
	}
}

func parseLastEventID(req *request) uint64 {
	if v, ok := header(req.Headers, "Last-Event-ID"); ok {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return id
		}
	}
	if v := req.Query.Get("last_event_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func writeSSEEvent(w io.Writer, id uint64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", id, data)
	return err
}

func writeSSEComment(w io.Writer, comment string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", comment)
	return err
}
