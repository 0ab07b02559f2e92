package handlers

import (
	"net/http"

	"sentinel-ehs/core/dashboard"
)

type DashboardHandler struct {
	refresher *dashboard.Refresher
}

func NewDashboardHandler(refresher *dashboard.Refresher) *DashboardHandler {
	return &DashboardHandler{refresher: refresher}
}

// Snapshot serves the cached payload; the cron-driven refresher keeps it
// current, so this never hits the database.
func (h *DashboardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.refresher.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot not ready")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
