package handlers

import (
	"net/http"
	"strings"

	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

// SitesHandler administers the per-site configuration and the company-level
// report settings behind the safe-days roll-up.
type SitesHandler struct {
	sites  store.SitesStore
	audits store.AuditStore
	logger *utils.Logger
}

func NewSitesHandler(sites store.SitesStore, audits store.AuditStore, logger *utils.Logger) *SitesHandler {
	return &SitesHandler{sites: sites, audits: audits, logger: logger}
}

func (h *SitesHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.sites.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if items == nil {
		items = []store.SiteConfig{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *SitesHandler) Get(w http.ResponseWriter, r *http.Request) {
	site := urlParam(r, "site")
	cfg, err := h.sites.Get(r.Context(), site)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if cfg == nil {
		writeError(w, http.StatusNotFound, "site not found")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *SitesHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	site := strings.TrimSpace(urlParam(r, "site"))
	if site == "" {
		writeError(w, http.StatusBadRequest, "site is required")
		return
	}
	var cfg store.SiteConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	cfg.Site = site
	if err := h.sites.Upsert(r.Context(), &cfg); err != nil {
		h.logger.Printf("site upsert failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.audit(r, "site.upsert", site)
	writeJSON(w, http.StatusOK, cfg)
}

func (h *SitesHandler) GetReportSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.sites.GetReportSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SitesHandler) SaveReportSettings(w http.ResponseWriter, r *http.Request) {
	var settings store.ReportSettings
	if !decodeBody(w, r, &settings) {
		return
	}
	if err := h.sites.SaveReportSettings(r.Context(), &settings); err != nil {
		h.logger.Printf("report settings save failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.audit(r, "report_settings.save", "")
	writeJSON(w, http.StatusOK, settings)
}

func (h *SitesHandler) audit(r *http.Request, action, details string) {
	if h.audits == nil {
		return
	}
	rec := &store.AuditRecord{Actor: actor(r), Action: action, Details: details}
	if err := h.audits.Append(r.Context(), rec); err != nil {
		h.logger.Printf("audit append failed for %s: %v", action, err)
	}
}
