package rpcserver

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lux-run/lux/pkg/harness"
	"github.com/lux-run/lux/pkg/log"
	"github.com/lux-run/lux/pkg/metrics"
	"github.com/lux-run/lux/pkg/state"
)

// proxiedVerbs are the mutating lifecycle verbs that must be serialized
// through /v1/execute unless the bypass env var is set (§4.5). Nothing
// reads this table: rpcserver keeps it as documentation, and cmd/lux makes
// the routing decision in its own shouldRouteThroughRuntime.
var ProxiedVerbs = map[string]bool{
	"up":     true,
	"down":   true,
	"status": true,
	"ui":     true,
	"run":    true,
}

func (s *Server) route(conn net.Conn, req *request) {
	metrics.APIRequestsTotal.WithLabelValues(req.Path).Inc()
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.APIRequestDuration, req.Path)

	switch {
	case req.Method == "GET" && req.Path == "/v1/healthz":
		s.handleHealthz(conn)
	case req.Method == "GET" && req.Path == "/v1/stack/status":
		s.handleStackStatus(conn)
	case req.Method == "GET" && req.Path == "/v1/run/status":
		s.handleRunStatus(conn)
	case req.Method == "GET" && req.Path == "/v1/session-job/status":
		s.handleSessionJobStatus(conn)
	case req.Method == "GET" && req.Path == "/v1/collector/pipeline/status":
		s.handlePipelineStatus(conn)
	case req.Method == "GET" && req.Path == "/v1/warnings":
		s.handleWarnings(conn)
	case req.Method == "GET" && req.Path == "/v1/events":
		s.handleEvents(conn, req)
	case req.Method == "POST" && req.Path == "/v1/execute":
		s.handleExecute(conn, req)
	case req.Method == "POST" && req.Path == "/v1/runtime/down":
		s.handleRuntimeDown(conn)
	case req.Method == "GET" && req.Path == "/v1/metrics":
		s.handleMetrics(conn)
	default:
		writeJSON(conn, 404, []byte(`{"error":"not found"}`))
	}
}

func writeJSONValue(conn net.Conn, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeJSON(conn, 500, []byte(`{"error":"internal error"}`))
		return
	}
	writeJSON(conn, status, body)
}

func (s *Server) handleHealthz(conn net.Conn) {
	writeJSONValue(conn, 200, map[string]any{
		"status": "ok",
		"ts":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStackStatus(conn net.Conn) {
	collectorRunning, _, collErr := s.statusOrFalse(s.deps.CollectorStatus)
	providerRunning, providerDetail, provErr := s.statusOrFalse(s.deps.ProviderStatus)

	active, err := state.LoadActiveRun(s.deps.LogRoot)
	if err != nil {
		writeJSONValue(conn, 500, map[string]any{"error": err.Error()})
		return
	}
	var activeRunID any
	if active != nil {
		activeRunID = active.RunID
	}

	resp := map[string]any{
		"collector_running": collectorRunning,
		"provider_running":  providerRunning,
		"provider":          providerDetail,
		"rotation_pending":  s.deps.State.RotationPending(),
		"active_run_id":     activeRunID,
	}
	if collErr != nil {
		resp["collector_status_error"] = collErr.Error()
	}
	if provErr != nil {
		resp["provider_status_error"] = provErr.Error()
	}
	writeJSONValue(conn, 200, resp)
}

func (s *Server) statusOrFalse(f StatusFunc) (bool, string, error) {
	if f == nil {
		return false, "", nil
	}
	return f()
}

func (s *Server) handleRunStatus(conn net.Conn) {
	active, err := state.LoadActiveRun(s.deps.LogRoot)
	if err != nil {
		writeJSONValue(conn, 500, map[string]any{"error": err.Error()})
		return
	}
	rotateEvery := 0
	if s.deps.Config != nil {
		rotateEvery = s.deps.Config.Collector.RotateEveryMin
	}
	writeJSONValue(conn, 200, map[string]any{
		"active_run":       active,
		"rotation_pending": s.deps.State.RotationPending(),
		"rotate_every_min": rotateEvery,
	})
}

func (s *Server) handleSessionJobStatus(conn net.Conn) {
	active, err := state.LoadActiveRun(s.deps.LogRoot)
	if err != nil {
		writeJSONValue(conn, 500, map[string]any{"error": err.Error()})
		return
	}
	if active == nil {
		writeJSONValue(conn, 200, map[string]any{
			"active_run_id": nil,
			"session_count": 0,
			"job_count":     0,
			"jobs_running":  0,
			"jobs_finished": 0,
		})
		return
	}
	runRoot := state.RunRoot(s.deps.LogRoot, active.RunID)
	summary := harness.Summarize(runRoot)
	writeJSONValue(conn, 200, map[string]any{
		"active_run_id": active.RunID,
		"session_count": summary.SessionCount,
		"job_count":     summary.JobCount,
		"jobs_running":  summary.JobsRunning,
		"jobs_finished": summary.JobsFinished,
	})
}

func (s *Server) handlePipelineStatus(conn net.Conn) {
	active, err := state.LoadActiveRun(s.deps.LogRoot)
	if err != nil {
		writeJSONValue(conn, 500, map[string]any{"error": err.Error()})
		return
	}
	if active == nil {
		writeJSONValue(conn, 200, map[string]any{"active_run_id": nil, "files": []any{}})
		return
	}
	runRoot := state.RunRoot(s.deps.LogRoot, active.RunID)
	files := map[string]string{
		"raw":      filepath.Join(runRoot, "collector", "raw", "ebpf.jsonl"),
		"audit":    filepath.Join(runRoot, "collector", "raw", "audit.log"),
		"filtered": filepath.Join(runRoot, "collector", "filtered", "filtered_timeline.jsonl"),
	}
	out := make(map[string]any, len(files))
	for name, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			out[name] = map[string]any{"present": false}
			continue
		}
		out[name] = map[string]any{
			"present": true,
			"size":    info.Size(),
			"mtime":   info.ModTime().UTC().Format(time.RFC3339),
		}
	}
	writeJSONValue(conn, 200, map[string]any{
		"active_run_id": active.RunID,
		"files":         out,
	})
}

func (s *Server) handleWarnings(conn net.Conn) {
	warnings := s.deps.State.Warnings()
	events, _ := s.deps.State.EventsSince(0)
	var errorEvents []any
	for _, ev := range events {
		if strings.Contains(string(ev.Type), "warning") || strings.Contains(string(ev.Type), "degradation") {
			errorEvents = append(errorEvents, ev)
		}
	}
	writeJSONValue(conn, 200, map[string]any{
		"warnings":     warnings,
		"error_events": errorEvents,
	})
}

func (s *Server) handleRuntimeDown(conn net.Conn) {
	s.deps.State.SetShutdown(true)
	writeJSONValue(conn, 200, map[string]any{"status": "ok"})
}

// handleMetrics adapts the promhttp handler, which expects a real
// net/http round trip, onto our hand-rolled HTTP/1.1 writer by recording
// its response into a ResponseRecorder and replaying it verbatim.
func (s *Server) handleMetrics(conn net.Conn) {
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))

	contentType := rec.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain; version=0.0.4"
	}
	writeResponse(conn, rec.Code, contentType, rec.Body.Bytes())
}

func (s *Server) handleExecute(conn net.Conn, req *request) {
	var body struct {
		Argv []string `json:"argv"`
	}
	if err := json.Unmarshal(req.Body, &body); err != nil {
		writeJSONValue(conn, 400, map[string]any{"error": "malformed body"})
		return
	}
	if s.deps.Execute == nil {
		writeJSONValue(conn, 500, map[string]any{"error": "execute not configured"})
		return
	}

	requestID := uuid.New().String()
	reqLogger := log.WithRequestID(requestID)
	reqLogger.Debug().Strs("argv", body.Argv).Msg("rpcserver: executing proxied verb")

	statusCode, stdout, stderr, err := s.deps.Execute(body.Argv)
	if err != nil {
		reqLogger.Warn().Err(err).Int("status_code", statusCode).Msg("rpcserver: execute failed")
	}
	resp := map[string]any{
		"request_id":  requestID,
		"status_code": statusCode,
		"stdout":      stdout,
		"stderr":      stderr,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSONValue(conn, 200, resp)
}
