package handlers

import (
	"net/http"
	"time"

	"github.com/gimpo-goldline/congestion/internal/resolver"
	"github.com/gimpo-goldline/congestion/models"
)

// CacheInspector reports the resolver's cached database without fetching
type CacheInspector interface {
	Peek() (resolver.Entry, bool)
}

// HealthHandler reports service and data state
type HealthHandler struct {
	cache CacheInspector
}

// NewHealthHandler creates a new handler over the resolver cache
func NewHealthHandler(cache CacheInspector) *HealthHandler {
	return &HealthHandler{cache: cache}
}

// GetHealth handles GET /health. A cold cache is reported but is not an
// error: requests still answer in degraded mode.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := models.HealthResponse{
		Status:    "ok",
		Data:      models.DataCold,
		Timestamp: time.Now().UTC(),
	}

	if e, ok := h.cache.Peek(); ok {
		loadedAt := e.LoadedAt.UTC()
		response.Data = models.DataCached
		response.Source = e.Source
		response.LoadedAt = &loadedAt
		if e.DB != nil {
			response.Days = len(e.DB.Days)
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// Healthz handles GET /healthz
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
