package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gimpo-goldline/congestion/internal/congestion"
	"github.com/gimpo-goldline/congestion/internal/ensemble"
	"github.com/gimpo-goldline/congestion/internal/history"
	"github.com/gimpo-goldline/congestion/internal/levels"
	"github.com/gimpo-goldline/congestion/internal/line"
	"github.com/gimpo-goldline/congestion/internal/resolver"
	"github.com/gimpo-goldline/congestion/internal/schedule"
	"github.com/gimpo-goldline/congestion/models"
)

type mockEstimator struct {
	estimate congestion.Estimate
	report   congestion.SimulationReport
	err      error
	panics   bool
	lastReq  congestion.Request
}

func (m *mockEstimator) Predict(ctx context.Context, req congestion.Request) (congestion.Estimate, error) {
	m.lastReq = req
	if m.panics {
		panic("boom")
	}
	return m.estimate, m.err
}

func (m *mockEstimator) Simulate(ctx context.Context, req congestion.Request) (congestion.SimulationReport, error) {
	m.lastReq = req
	return m.report, m.err
}

func newRouter(est Estimator) http.Handler {
	h := NewCongestionHandler(est)
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Get("/api/predict", h.GetPrediction)
	r.Get("/api/predict/{station}", h.GetPrediction)
	r.Get("/api/simulate", h.GetSimulation)
	r.Get("/api/levels", GetLevels)
	return r
}

func okEstimate() congestion.Estimate {
	return congestion.Estimate{
		Status: congestion.StatusOK,
		Query: congestion.Query{
			Station: "Gochon", Direction: line.ToAirport, Day: history.Monday,
			DateStr: "2025-10-20", Hour: 8, Minute: 15, Weather: "Clear",
		},
		DataDay:    history.Monday,
		Congestion: 150,
		Level:      levels.Lookup(150),
		Route:      []ensemble.RouteStation{{Station: "Gochon", Congestion: 150, Color: ensemble.ColorRed}},
		NextTrains: []schedule.Train{{Hour: 8, Minute: 20}},
		MatchCount: 3,
		TopMatch:   &ensemble.Match{Date: "2025-10-13", Score: 110},
		Source:     "local",
	}
}

func TestGetPrediction_OK(t *testing.T) {
	est := &mockEstimator{estimate: okEstimate()}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/predict?station="+url.QueryEscape("고촌")+"&hour=8&minute=15&holiday=false", nil)

	newRouter(est).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp models.PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Status != "ok" {
		t.Errorf("success/status = %v/%s, want true/ok", resp.Success, resp.Status)
	}
	if resp.RequestID == "" {
		t.Error("RequestID is empty")
	}
	if resp.Congestion != 150 || resp.Level.Rank != 6 {
		t.Errorf("congestion/level = %d/%d, want 150/6", resp.Congestion, resp.Level.Rank)
	}
	if len(resp.NextTrains) != 1 || resp.NextTrains[0].Time != "08:20" {
		t.Errorf("NextTrains = %+v, want one train at 08:20", resp.NextTrains)
	}
	if resp.Diagnostics.TopMatchDate != "2025-10-13" || resp.Diagnostics.TopMatchScore != 110 {
		t.Errorf("diagnostics = %+v", resp.Diagnostics)
	}
	if resp.Diagnostics.Degraded {
		t.Error("Degraded = true, want false")
	}

	if est.lastReq.Station != "고촌" {
		t.Errorf("station passed = %q", est.lastReq.Station)
	}
	if est.lastReq.Hour == nil || *est.lastReq.Hour != 8 {
		t.Errorf("hour passed = %v, want 8", est.lastReq.Hour)
	}
	if est.lastReq.Holiday == nil || *est.lastReq.Holiday {
		t.Errorf("holiday passed = %v, want false", est.lastReq.Holiday)
	}
}

func TestGetPrediction_StationFromPath(t *testing.T) {
	est := &mockEstimator{estimate: okEstimate()}
	rec := httptest.NewRecorder()
	newRouter(est).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predict/Pungmu", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if est.lastReq.Station != "Pungmu" {
		t.Errorf("station passed = %q, want Pungmu", est.lastReq.Station)
	}
	if est.lastReq.Hour != nil {
		t.Errorf("hour passed = %v, want nil", *est.lastReq.Hour)
	}
}

func TestGetPrediction_Degraded(t *testing.T) {
	est := &mockEstimator{estimate: congestion.Estimate{
		Status:     congestion.StatusDegraded,
		Congestion: 250,
		Level:      levels.Lookup(250),
		Mode:       resolver.ModeEmergency,
	}}
	rec := httptest.NewRecorder()
	newRouter(est).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predict?station=Gochon", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "degraded" || !resp.Diagnostics.Degraded || resp.Diagnostics.Mode != resolver.ModeEmergency {
		t.Errorf("unexpected degraded response: %+v", resp)
	}
	if resp.Route == nil || resp.NextTrains == nil {
		t.Error("route and nextTrains must be present as arrays")
	}
}

func TestGetPrediction_Errors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		err        error
		panics     bool
		wantStatus int
	}{
		{"bad hour", "/api/predict?station=Gochon&hour=eight", nil, false, http.StatusBadRequest},
		{"bad holiday", "/api/predict?station=Gochon&holiday=maybe", nil, false, http.StatusBadRequest},
		{"invalid station", "/api/predict?station=Seoul", fmt.Errorf("%w: Seoul", ensemble.ErrInvalidStation), false, http.StatusBadRequest},
		{"no data", "/api/predict?station=Gochon", ensemble.ErrNoDataForDay, false, http.StatusBadRequest},
		{"internal", "/api/predict?station=Gochon", errors.New("disk on fire"), false, http.StatusInternalServerError},
		{"panic", "/api/predict?station=Gochon", nil, true, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			est := &mockEstimator{err: tc.err, panics: tc.panics}
			rec := httptest.NewRecorder()
			newRouter(est).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body is not JSON: %v (%s)", err, rec.Body.String())
			}
			if resp.Success || resp.Status != "error" || resp.Error == "" {
				t.Errorf("unexpected error body: %+v", resp)
			}
		})
	}
}

func TestGetPrediction_InternalErrorHidesCause(t *testing.T) {
	est := &mockEstimator{err: errors.New("pq: password authentication failed for user admin")}
	rec := httptest.NewRecorder()
	newRouter(est).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predict?station=Gochon", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("internal error text leaked into response: %s", rec.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp.Details != nil {
		t.Errorf("expected no details on a 500, got %v", resp.Details)
	}
}

func TestGetSimulation(t *testing.T) {
	est := &mockEstimator{report: congestion.SimulationReport{
		Status:   congestion.StatusOK,
		DataDay:  history.Monday,
		Stations: []congestion.StationState{{Station: "Gochon", Load: 1000, Queue: 500, Trains: 5}},
	}}
	rec := httptest.NewRecorder()
	newRouter(est).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/simulate?station=Gochon&hour=8", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.SimulateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Stations) != 1 || resp.Stations[0].Queue != 500 {
		t.Errorf("stations = %+v", resp.Stations)
	}
	if resp.Segments == nil {
		t.Error("segments must be an array")
	}
}

func TestGetLevels(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&mockEstimator{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/levels", nil))

	var resp models.LevelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 10 || resp.Levels[9].Threshold != levels.OverflowThreshold {
		t.Errorf("unexpected levels: %+v", resp)
	}
}

type fakeCache struct {
	entry resolver.Entry
	ok    bool
}

func (f fakeCache) Peek() (resolver.Entry, bool) { return f.entry, f.ok }

func TestGetHealth(t *testing.T) {
	loaded := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		cache    fakeCache
		wantData string
		wantDays int
	}{
		{"cold", fakeCache{}, models.DataCold, 0},
		{"cached", fakeCache{ok: true, entry: resolver.Entry{
			DB:       &history.Database{Days: map[string]*history.DayRecord{"2025-10-13": {}}},
			Source:   "local",
			LoadedAt: loaded,
		}}, models.DataCached, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tc.cache).GetHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp models.HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Data != tc.wantData || resp.Days != tc.wantDays {
				t.Errorf("data/days = %s/%d, want %s/%d", resp.Data, resp.Days, tc.wantData, tc.wantDays)
			}
		})
	}
}
