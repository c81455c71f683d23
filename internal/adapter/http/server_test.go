package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	httpadapter "github.com/agrisafe/crop-risk-advisory/internal/adapter/http"
	"github.com/agrisafe/crop-risk-advisory/internal/dispatch"
	"github.com/agrisafe/crop-risk-advisory/internal/observability"
	"github.com/agrisafe/crop-risk-advisory/internal/store"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness() error { return m.err }

type nopSink struct{}

func (nopSink) Deliver(_ context.Context, _, _ string, _ dispatch.DeliveryOptions) error { return nil }

type nopFallback struct{}

func (nopFallback) DeliverFallback(_ context.Context, _, _ string) error { return nil }

func newTestServer(readyErr error) *httpadapter.Server {
	sessions := dispatch.NewSessions(store.NewMemoryStore(), slog.Default(), 50, 24*time.Hour, 100)
	d := dispatch.New(sessions, nopSink{}, nopFallback{}, clockwork.NewRealClock(), time.Minute, slog.Default(), observability.NewMetricsForTesting())
	crops := store.NewCropRegistry(slog.Default())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, d, sessions, crops, language.English, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("no cycle yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no cycle yet", body["error"])
}

func TestEvaluateReturnsAssessmentsAndAdvisories(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(`{
		"weather": {"temperature": 25, "humidity": 95, "rainfall_mm": 0, "wind_speed_ms": 3},
		"crops": [{"id": "c1", "crop_name": "rice", "stage": "harvested", "storage_method": "open_space"}]
	}`))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OverallRisk string `json:"overall_risk"`
		Assessments []struct {
			Score         int    `json:"score"`
			PrimaryThreat string `json:"primary_threat"`
		} `json:"assessments"`
		Advisories []struct {
			Type     string `json:"type"`
			Severity string `json:"severity"`
		} `json:"advisories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "medium", body.OverallRisk)
	require.Len(t, body.Assessments, 1)
	assert.Equal(t, 53, body.Assessments[0].Score)
	assert.Equal(t, "humidity", body.Assessments[0].PrimaryThreat)
	require.Len(t, body.Advisories, 2, "storage advisory plus urgent humidity alert")
	assert.Equal(t, "storage_risk", body.Advisories[0].Type)
	assert.Equal(t, "weather_alert", body.Advisories[1].Type)
}

func TestEvaluateRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(`{`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateRejectsUnknownLanguage(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(`{"language": "no-such-tag!"}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferencesRoundTrip(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/farmers/farmer-1/preferences",
		strings.NewReader(`{"mute_weather_advisories": true}`))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/farmers/farmer-1/preferences", nil)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var prefs map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
	assert.True(t, prefs["mute_weather_advisories"])
}

func TestCropsRoundTrip(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/farmers/farmer-1/crops",
		strings.NewReader(`[{"id": "c1", "crop_name": "rice", "stage": "growing"}]`))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/farmers/farmer-1/crops", nil)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var batches []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, "rice", batches[0]["crop_name"])
}

func TestConnectivitySwitch(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/connectivity", strings.NewReader(`{"online": false}`))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["online"])
}
