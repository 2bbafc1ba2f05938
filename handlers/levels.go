package handlers

import (
	"net/http"

	"github.com/gimpo-goldline/congestion/internal/levels"
	"github.com/gimpo-goldline/congestion/models"
)

// GetLevels handles GET /api/levels
func GetLevels(w http.ResponseWriter, r *http.Request) {
	all := levels.All()
	out := make([]models.Level, 0, len(all))
	for _, l := range all {
		out = append(out, toLevel(l))
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, http.StatusOK, models.LevelsResponse{Levels: out, Count: len(out)})
}
