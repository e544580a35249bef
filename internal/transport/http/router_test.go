package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sysbro/internal/config"
	"sysbro/internal/domain"
	"sysbro/internal/logger"
	"sysbro/internal/probe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct{}

func (fakeHost) HostInfo(context.Context) domain.HostInfo {
	return domain.HostInfo{Hostname: "box", Kernel: "6.1.0"}
}

func (fakeHost) JunkScan(ctx context.Context) ([]domain.JunkCategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []domain.JunkCategory{
		{Name: "crash_reports", Path: "/var/crash", SizeBytes: 2048, Formatted: "2.0KB",
			Entries: []domain.JunkEntry{{Name: "app.crash", SizeBytes: 2048}}},
	}, nil
}

type fakeSnapshots struct {
	latest *domain.Snapshot
}

func (f *fakeSnapshots) Latest() *domain.Snapshot { return f.latest }

func (f *fakeSnapshots) History() []domain.Snapshot {
	if f.latest == nil {
		return []domain.Snapshot{}
	}
	return []domain.Snapshot{*f.latest}
}

type fakeHistory struct {
	limit   int
	records []domain.ProbeRecord
	err     error
}

func (f *fakeHistory) List(_ context.Context, limit int) ([]domain.ProbeRecord, error) {
	f.limit = limit
	return f.records, f.err
}

type fixture struct {
	handler   http.Handler
	snapshots *fakeSnapshots
	history   *fakeHistory
	prober    *probe.Prober
}

func newFixture(t *testing.T, payload http.HandlerFunc) *fixture {
	t.Helper()

	upstream := httptest.NewServer(payload)
	t.Cleanup(upstream.Close)

	prober := probe.New(upstream.Client(), []probe.Target{{Name: "local", URL: upstream.URL}})
	f := &fixture{
		snapshots: &fakeSnapshots{},
		history:   &fakeHistory{},
		prober:    prober,
	}

	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:3000"}}
	f.handler = NewRouter(cfg, logger.Nop(), &RouterDeps{
		System: NewSystemHandler(fakeHost{}, f.snapshots),
		Probe:  NewProbeHandler(context.Background(), prober, f.history, logger.Nop()),
	})
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func okPayload(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Length", "4096")
	w.Write(make([]byte, 4096))
}

// stallPayload sends a few bytes then holds the connection until release closes.
func stallPayload(release <-chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.Write(make([]byte, 64))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, okPayload)

	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSystemInfo(t *testing.T) {
	f := newFixture(t, okPayload)

	rec := f.do(http.MethodGet, "/api/system", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "box", data["hostname"])
	assert.Equal(t, "6.1.0", data["kernel"])
}

func TestSystemJunk(t *testing.T) {
	f := newFixture(t, okPayload)

	rec := f.do(http.MethodGet, "/api/system/junk", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	cat := data[0].(map[string]any)
	assert.Equal(t, "/var/crash", cat["path"])
	assert.Equal(t, "2.0KB", cat["formatted"])
	assert.Len(t, cat["entries"], 1)

	rec = f.do(http.MethodDelete, "/api/system/junk", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLatestSnapshot(t *testing.T) {
	f := newFixture(t, okPayload)

	rec := f.do(http.MethodGet, "/api/metrics/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.snapshots.latest = &domain.Snapshot{CPUPercent: 12.5, Memory: "1.0GB / 2.0GB"}

	rec = f.do(http.MethodGet, "/api/metrics/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, 12.5, data["cpu_percent"])
	assert.Equal(t, "1.0GB / 2.0GB", data["memory"])

	rec = f.do(http.MethodGet, "/api/metrics/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}

func TestProbeStartValidation(t *testing.T) {
	f := newFixture(t, okPayload)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed body", "{", http.StatusBadRequest},
		{"missing index", "{}", http.StatusUnprocessableEntity},
		{"negative index", `{"server_index":-1}`, http.StatusUnprocessableEntity},
		{"out of range", `{"server_index":5}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/probe", tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	assert.Equal(t, domain.ProbeIdle, f.prober.State())
}

func TestProbeStartRunsToCompletion(t *testing.T) {
	f := newFixture(t, okPayload)

	rec := f.do(http.MethodPost, "/api/probe", `{"server_index":0}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	s := f.prober.Current()
	require.NotNil(t, s)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not finish")
	}

	rec = f.do(http.MethodGet, "/api/probe", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "succeeded", data["state"])
	assert.Len(t, data["targets"], 1)

	current := data["current"].(map[string]any)
	record := current["record"].(map[string]any)
	assert.Equal(t, float64(4096), record["bytes_received"])
}

func TestProbeOverlapAndCancel(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, stallPayload(release))
	t.Cleanup(func() { close(release) })

	rec := f.do(http.MethodDelete, "/api/probe", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/probe", `{"server_index":0}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	s := f.prober.Current()

	rec = f.do(http.MethodPost, "/api/probe", `{"server_index":0}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodDelete, "/api/probe", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not stop after cancel")
	}
	assert.Equal(t, domain.ProbeAborted, f.prober.State())
}

func TestProbeHistory(t *testing.T) {
	f := newFixture(t, okPayload)
	f.history.records = []domain.ProbeRecord{{State: domain.ProbeSucceeded}}

	rec := f.do(http.MethodGet, "/api/probe/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryLimit, f.history.limit)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = f.do(http.MethodGet, "/api/probe/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, f.history.limit)

	rec = f.do(http.MethodGet, "/api/probe/history?limit=zero", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	f.history.err = errors.New("database is locked")
	rec = f.do(http.MethodGet, "/api/probe/history", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.Errorf(domain.KindInvalidSelection, "select", "bad"), http.StatusBadRequest},
		{domain.Errorf(domain.KindProbeInProgress, "start", "busy"), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.Errorf(domain.KindTransfer, "get", "refused")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusFor(tt.err), tt.err.Error())
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t, okPayload)

	req := httptest.NewRequest(http.MethodOptions, "/api/probe", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
