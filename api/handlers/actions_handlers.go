package handlers

import (
	"errors"
	"net/http"
	"strings"

	"sentinel-ehs/core/incidents"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

type ActionsHandler struct {
	svc    *incidents.ActionService
	logger *utils.Logger
}

func NewActionsHandler(svc *incidents.ActionService, logger *utils.Logger) *ActionsHandler {
	return &ActionsHandler{svc: svc, logger: logger}
}

func (h *ActionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var act store.Action
	if !decodeBody(w, r, &act) {
		return
	}
	act.ID = 0
	act.Number = 0
	if err := h.svc.Create(r.Context(), &act, actor(r)); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, act)
}

func (h *ActionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid action id")
		return
	}
	var act store.Action
	if !decodeBody(w, r, &act) {
		return
	}
	act.ID = id
	if err := h.svc.Update(r.Context(), &act, actor(r)); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, act)
}

func (h *ActionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid action id")
		return
	}
	act, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if act == nil {
		writeError(w, http.StatusNotFound, "action not found")
		return
	}
	writeJSON(w, http.StatusOK, act)
}

func (h *ActionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ActionFilter{
		IncidentNumber: strings.TrimSpace(q.Get("incident_number")),
		Status:         strings.TrimSpace(q.Get("status")),
		Site:           strings.TrimSpace(q.Get("site")),
		Limit:          queryInt(q.Get("limit"), 100),
	}
	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if items == nil {
		items = []store.Action{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, incidents.ErrActionKindRequired),
		errors.Is(err, incidents.ErrActionCategoryRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "version conflict")
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}
