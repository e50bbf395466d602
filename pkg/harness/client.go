package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RunRequest is the payload `lux run` posts to the harness's own HTTP API.
type RunRequest struct {
	Prompt       string            `json:"prompt"`
	CaptureInput bool              `json:"capture_input"`
	Cwd          string            `json:"cwd"`
	TimeoutSec   *int              `json:"timeout_sec,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
}

// RunResult is the harness's response, tagged with a client-generated
// request id so its logs can be correlated with the supervisor's even
// when the harness's own job id isn't known yet.
type RunResult struct {
	RequestID  string
	StatusCode int
	Body       json.RawMessage
}

// Client talks to the harness container's HTTP API (§6: host/port/token
// configured under the `harness` config section).
type Client struct {
	Host       string
	Port       int
	Token      string
	HTTPClient *http.Client
}

// NewClient constructs a Client with a sane request timeout.
func NewClient(host string, port int, token string) *Client {
	return &Client{Host: host, Port: port, Token: token, HTTPClient: &http.Client{Timeout: 120 * time.Second}}
}

// Run posts req to the harness's /run endpoint and returns its response.
func (c *Client) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	requestID := uuid.New().String()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("harness: marshal run request: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/run", c.Host, c.Port)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("harness: build run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Harness-Token", c.Token)
	httpReq.Header.Set("X-Harness-Request-Id", requestID)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("harness: run request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("harness: read run response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("harness: run failed: HTTP %d: %s", resp.StatusCode, string(body))
	}

	return &RunResult{RequestID: requestID, StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
