package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gimpo-goldline/congestion/internal/congestion"
	"github.com/gimpo-goldline/congestion/models"
)

// requestTimeout bounds a request, including a cold database resolution
const requestTimeout = 10 * time.Second

// Estimator defines the operations the congestion handlers need
type Estimator interface {
	Predict(ctx context.Context, req congestion.Request) (congestion.Estimate, error)
	Simulate(ctx context.Context, req congestion.Request) (congestion.SimulationReport, error)
}

// CongestionHandler handles prediction and simulation requests
type CongestionHandler struct {
	est Estimator
}

// NewCongestionHandler creates a new handler with the given estimator
func NewCongestionHandler(est Estimator) *CongestionHandler {
	return &CongestionHandler{est: est}
}

// GetPrediction handles GET /api/predict and GET /api/predict/{station}
func (h *CongestionHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	est, err := h.est.Predict(ctx, req)
	if err != nil {
		h.fail(w, err, req)
		return
	}

	response := models.PredictResponse{
		Success:     true,
		Status:      string(est.Status),
		RequestID:   uuid.NewString(),
		Query:       toQueryEcho(est.Query),
		Congestion:  est.Congestion,
		Level:       toLevel(est.Level),
		Route:       toRoute(est.Route),
		NextTrains:  toDepartures(est.NextTrains),
		Diagnostics: toDiagnostics(est),
		GeneratedAt: time.Now().UTC(),
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, response)
}

// GetSimulation handles GET /api/simulate
func (h *CongestionHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	report, err := h.est.Simulate(ctx, req)
	if err != nil {
		h.fail(w, err, req)
		return
	}

	response := models.SimulateResponse{
		Success:     true,
		Status:      string(report.Status),
		RequestID:   uuid.NewString(),
		Query:       toQueryEcho(report.Query),
		DataDay:     string(report.DataDay),
		Stations:    toStationLoads(report.Stations),
		Segments:    toSegments(report.Segments),
		Advice:      toAdvice(report.Advice),
		Source:      report.Source,
		Mode:        report.Mode,
		GeneratedAt: time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *CongestionHandler) fail(w http.ResponseWriter, err error, req congestion.Request) {
	if congestion.IsClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error(), map[string]interface{}{
			"station": req.Station,
		})
		return
	}

	log.Printf("Congestion request failed for %q: %v", req.Station, err)
	writeError(w, http.StatusInternalServerError, "Failed to estimate congestion", nil)
}

// parseRequest reads query parameters. The station may also come from the
// {station} URL parameter.
func parseRequest(r *http.Request) (congestion.Request, error) {
	q := r.URL.Query()

	req := congestion.Request{
		Station:   q.Get("station"),
		Direction: q.Get("direction"),
		Day:       q.Get("day"),
		Date:      q.Get("date"),
		Weather:   q.Get("weather"),
	}
	if p := chi.URLParam(r, "station"); p != "" {
		req.Station = p
	}

	var err error
	if req.Hour, err = optionalInt(q.Get("hour"), "hour"); err != nil {
		return req, err
	}
	if req.Minute, err = optionalInt(q.Get("minute"), "minute"); err != nil {
		return req, err
	}

	if v := strings.TrimSpace(q.Get("holiday")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("holiday must be true or false")
		}
		req.Holiday = &b
	}
	return req, nil
}

func optionalInt(value, name string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}
