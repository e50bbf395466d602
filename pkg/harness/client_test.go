package harness

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientRunSendsTokenAndRequestID(t *testing.T) {
	var gotToken, gotRequestID string
	var gotBody RunRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Harness-Token")
		gotRequestID = r.Header.Get("X-Harness-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"job_id":"abc"}`))
	}))
	defer srv.Close()

	host, portStr := splitHostPort(t, srv.URL)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := NewClient(host, port, "secret-token")
	res, err := c.Run(context.Background(), RunRequest{Prompt: "hello", CaptureInput: true})
	require.NoError(t, err)

	require.Equal(t, "secret-token", gotToken)
	require.NotEmpty(t, gotRequestID)
	require.Equal(t, gotRequestID, res.RequestID)
	require.Equal(t, "hello", gotBody.Prompt)
	require.Contains(t, string(res.Body), "abc")
}

func TestClientRunPropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	host, portStr := splitHostPort(t, srv.URL)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := NewClient(host, port, "tok")
	_, err = c.Run(context.Background(), RunRequest{Prompt: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func splitHostPort(t *testing.T, rawURL string) (string, string) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host := u.Hostname()
	return host, u.Port()
}
