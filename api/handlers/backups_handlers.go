package handlers

import (
	"net/http"

	"sentinel-ehs/core/backups"
	"sentinel-ehs/core/utils"
)

type BackupsHandler struct {
	svc    *backups.Service
	logger *utils.Logger
}

func NewBackupsHandler(svc *backups.Service, logger *utils.Logger) *BackupsHandler {
	return &BackupsHandler{svc: svc, logger: logger}
}

func (h *BackupsHandler) List(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Printf("backup listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": snaps})
}

func (h *BackupsHandler) Run(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Run(r.Context())
	if err != nil {
		h.logger.Printf("manual backup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}
