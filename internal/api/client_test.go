package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaosdash/internal/chaos"
	"chaosdash/internal/session"
)

type recorded struct {
	Path        string
	ContentType string
	RequestID   string
	Body        string
}

type recorder struct {
	mu     sync.Mutex
	reqs   []recorded
	status int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.reqs = append(r.reqs, recorded{
		Path:        req.URL.Path,
		ContentType: req.Header.Get("Content-Type"),
		RequestID:   req.Header.Get("X-Request-ID"),
		Body:        string(body),
	})
	status := r.status
	r.mu.Unlock()

	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "nope"})
}

func newTestClient(t *testing.T, rec *recorder) *Client {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestClient_StartSession(t *testing.T) {
	rec := &recorder{}
	c := newTestClient(t, rec)

	err := c.StartSession(context.Background(), session.NewRequest("", "", ""))
	require.NoError(t, err)

	require.Len(t, rec.reqs, 1)
	got := rec.reqs[0]
	assert.Equal(t, PathStart, got.Path)
	assert.Equal(t, "application/json", got.ContentType)
	assert.NotEmpty(t, got.RequestID)
	assert.JSONEq(t, `{"target_url":"https://jsonplaceholder.typicode.com/posts","users":10,"spawn_rate":2}`, got.Body)
}

func TestClient_StopSessionHasNoBody(t *testing.T) {
	rec := &recorder{}
	c := newTestClient(t, rec)

	require.NoError(t, c.StopSession(context.Background()))
	require.Len(t, rec.reqs, 1)
	assert.Equal(t, PathStop, rec.reqs[0].Path)
	assert.Empty(t, rec.reqs[0].Body)
	assert.Empty(t, rec.reqs[0].ContentType)
}

func TestClient_UpdateChaosSendsFullConfig(t *testing.T) {
	rec := &recorder{}
	c := newTestClient(t, rec)

	cfg := chaos.DefaultConfig().With(chaos.PacketLoss, 25).With(chaos.Latency, 100)
	require.NoError(t, c.UpdateChaos(context.Background(), cfg))

	require.Len(t, rec.reqs, 1)
	assert.Equal(t, PathChaos, rec.reqs[0].Path)
	assert.JSONEq(t, `{
		"latency_ms": 100,
		"latency_jitter_ms": 0,
		"packet_loss_percent": 25,
		"rate_limit_percent": 0,
		"slowdown_multiplier": 1
	}`, rec.reqs[0].Body)
}

func TestClient_NonSuccessIsStatusError(t *testing.T) {
	rec := &recorder{status: http.StatusConflict}
	c := newTestClient(t, rec)

	err := c.StopSession(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, PathStop, se.Path)
	assert.Contains(t, se.Error(), "status 409")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Error(t, c.StartSession(context.Background(), session.Request{}))
}

func TestClient_BaseURLWithPrefix(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL + "/chaos-tester"})
	require.NoError(t, err)
	require.NoError(t, c.StopSession(context.Background()))
	assert.Equal(t, "/chaos-tester/api/load/stop", rec.reqs[0].Path)
}

func TestNewClient_RejectsBadScheme(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
	_, err = NewClient(Options{BaseURL: "://"})
	assert.Error(t, err)
}
