package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/peakline/corridor-vibes/internal/adapter/http"
	"github.com/peakline/corridor-vibes/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockStatuses struct {
	statuses []domain.LiveStatus
	err      error
}

func (m *mockStatuses) LiveStatuses(_ context.Context) ([]domain.LiveStatus, error) {
	return m.statuses, m.err
}

func newTestServer(readyErr error, statuses *mockStatuses) *httpadapter.Server {
	if statuses == nil {
		statuses = &mockStatuses{}
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, statuses, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestStatusReturnsLiveStatuses(t *testing.T) {
	score := 6.5
	statuses := &mockStatuses{statuses: []domain.LiveStatus{
		{
			SegmentID: "floyd-west",
			Name:      "Floyd Hill Westbound",
			Score:     &score,
			Summary:   "Moderate congestion, budget extra time.",
			Trend:     domain.TrendStable,
			UpdatedAt: time.Date(2026, 2, 10, 8, 5, 0, 0, time.UTC),
		},
	}}

	srv := newTestServer(nil, statuses)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body []domain.LiveStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "floyd-west", body[0].SegmentID)
	require.NotNil(t, body[0].Score)
	assert.Equal(t, 6.5, *body[0].Score)
}

func TestStatusEmptyIsJSONArray(t *testing.T) {
	srv := newTestServer(nil, &mockStatuses{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestStatusReturns500OnStoreError(t *testing.T) {
	srv := newTestServer(nil, &mockStatuses{err: fmt.Errorf("db locked")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
