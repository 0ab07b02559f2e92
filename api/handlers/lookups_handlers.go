package handlers

import (
	"net/http"

	"sentinel-ehs/core/store"
)

// LookupsHandler serves the read collaborators behind fetch-and-copy
// population. A 404 here means the caller leaves dependent fields blank; it is
// never an error the form surfaces.
type LookupsHandler struct {
	employees store.EmployeesStore
	assets    store.AssetsStore
}

func NewLookupsHandler(employees store.EmployeesStore, assets store.AssetsStore) *LookupsHandler {
	return &LookupsHandler{employees: employees, assets: assets}
}

func (h *LookupsHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	emp, err := h.employees.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (h *LookupsHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	asset, err := h.assets.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if asset == nil {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}
	writeJSON(w, http.StatusOK, asset)
}
