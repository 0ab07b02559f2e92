package handlers

import (
	"net/http"
	"strings"
	"time"

	"sentinel-ehs/core/reports"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

type ReportsHandler struct {
	safeDays *reports.SafeDaysService
	injuries *reports.InjuryNatureService
	sites    store.SitesStore
	logger   *utils.Logger
}

func NewReportsHandler(safeDays *reports.SafeDaysService, injuries *reports.InjuryNatureService, sites store.SitesStore, logger *utils.Logger) *ReportsHandler {
	return &ReportsHandler{safeDays: safeDays, injuries: injuries, sites: sites, logger: logger}
}

func (h *ReportsHandler) SafeDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := reports.SafeDaysRequest{}
	for _, site := range q["site"] {
		if s := strings.TrimSpace(site); s != "" {
			req.Sites = append(req.Sites, s)
		}
	}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		if t, err := parseDateTime(raw); err == nil {
			req.From = t
		}
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		if t, err := parseDateTime(raw); err == nil {
			req.To = t
		}
	}
	rows, err := h.safeDays.Report(r.Context(), req)
	if err != nil {
		h.logger.Printf("safe days report failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if rows == nil {
		rows = []reports.SafeDaysRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *ReportsHandler) InjuryNatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to time.Time
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		if t, err := parseDateTime(raw); err == nil {
			from = t
		}
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		if t, err := parseDateTime(raw); err == nil {
			to = t
		}
	}
	report, err := h.injuries.Report(r.Context(), strings.TrimSpace(q.Get("site")), from, to)
	if err != nil {
		h.logger.Printf("injury nature report failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
