package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/logistic/internal/config"
	"github.com/JonMunkholm/logistic/internal/core"
	"github.com/JonMunkholm/logistic/internal/store"
)

type fakeLogs struct {
	reports []core.RunReport
	filter  store.LogFilter
	err     error
}

func (f *fakeLogs) List(_ context.Context, filter store.LogFilter) ([]core.RunReport, error) {
	f.filter = filter
	return f.reports, f.err
}

func (f *fakeLogs) Get(_ context.Context, id string) (*core.RunReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.reports {
		if f.reports[i].ID == id {
			return &f.reports[i], nil
		}
	}
	return nil, store.ErrNotFound
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(logs LogReader, db Pinger, cfg config.ServerConfig) *Server {
	s := NewServer(cfg, logs, db, nil)
	s.kinds = func() []*core.ImportKind {
		return []*core.ImportKind{{Code: "stock", Label: "Stock", Required: []string{"sku"}}}
	}
	return s
}

func serve(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func sampleReport() core.RunReport {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return core.RunReport{
		ID:         "5f0c6f5e-8d0a-4d53-9a61-3f1ef0e6a0b1",
		RunID:      "run-1",
		Status:     core.StatusSuccess,
		Messages:   []string{"stock_1.csv: 2 lines imported in 0.010 seconds"},
		EntityType: "stock",
		StartedAt:  at,
		FinishedAt: at.Add(time.Second),
	}
}

func TestHealth(t *testing.T) {
	rec := serve(t, newTestServer(&fakeLogs{}, fakePinger{}, config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(t, newTestServer(&fakeLogs{}, fakePinger{err: errors.New("down")}, config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(t, newTestServer(&fakeLogs{}, nil, config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	rec := serve(t, newTestServer(&fakeLogs{}, nil, config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListKinds(t *testing.T) {
	rec := serve(t, newTestServer(&fakeLogs{}, nil, config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/api/kinds", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var kinds []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kinds))
	require.Len(t, kinds, 1)
	assert.Equal(t, "stock", kinds[0]["code"])
}

func TestListLogs(t *testing.T) {
	logs := &fakeLogs{reports: []core.RunReport{sampleReport()}}
	s := newTestServer(logs, nil, config.ServerConfig{})

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/logs?kind=stock&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.LogFilter{Kind: "stock", Limit: 5}, logs.filter)

	var body logsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Logs, 1)
	assert.Equal(t, core.StatusSuccess, body.Logs[0].Status)

	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/logs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestListLogs_EmptyIsArray(t *testing.T) {
	rec := serve(t, newTestServer(&fakeLogs{}, nil, config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"logs":[]}`, rec.Body.String())
}

func TestListLogs_StoreErrorIsSanitized(t *testing.T) {
	logs := &fakeLogs{err: errors.New("pq: password authentication failed for user admin")}
	rec := serve(t, newTestServer(logs, nil, config.ServerConfig{}), httptest.NewRequest(http.MethodGet, "/api/logs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestGetLog(t *testing.T) {
	s := newTestServer(&fakeLogs{reports: []core.RunReport{sampleReport()}}, nil, config.ServerConfig{})

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/logs/"+sampleReport().ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entityType":"stock"`)

	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/logs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestAPIKeyAuth(t *testing.T) {
	s := newTestServer(&fakeLogs{}, nil, config.ServerConfig{APIKeys: []string{"k1", "k2"}})

	rec := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/kinds", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/kinds", nil)
	req.Header.Set("X-API-Key", "nope")
	assert.Equal(t, http.StatusForbidden, serve(t, s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/kinds", nil)
	req.Header.Set("X-API-Key", "k2")
	assert.Equal(t, http.StatusOK, serve(t, s, req).Code)

	rec = serve(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is outside /api")
}
