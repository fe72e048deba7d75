package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Propgic/internal/store"
)

type AdminHandler struct {
	store store.Store
}

func NewAdminHandler(s store.Store) *AdminHandler {
	return &AdminHandler{store: s}
}

type StatsResponse struct {
	TotalPending    int    `json:"total_pending"`
	TotalInProgress int    `json:"total_in_progress"`
	TotalCompleted  int    `json:"total_completed"`
	TotalFailed     int    `json:"total_failed"`
	AvgScore        string `json:"avg_score,omitempty"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := StatsResponse{
		TotalPending:    stats.TotalPending,
		TotalInProgress: stats.TotalInProgress,
		TotalCompleted:  stats.TotalCompleted,
		TotalFailed:     stats.TotalFailed,
	}
	if stats.AvgScore.Valid {
		resp.AvgScore = stats.AvgScore.Decimal.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, resp)
}
