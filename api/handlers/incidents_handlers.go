package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sentinel-ehs/core/incidents"
	"sentinel-ehs/core/numbering"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

const incidentPayloadMaxBytes = 1 << 20

type IncidentsHandler struct {
	svc    *incidents.Service
	audits store.AuditStore
	logger *utils.Logger
}

func NewIncidentsHandler(svc *incidents.Service, audits store.AuditStore, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{svc: svc, audits: audits, logger: logger}
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var inc store.Incident
	if !decodeBody(w, r, &inc) {
		return
	}
	// The number stays as posted: empty means the store allocates inside the
	// create transaction, non-empty must match an outstanding allocator grant.
	inc.ID = 0

	if err := h.svc.Populate(r.Context(), &inc); err != nil {
		h.logger.Printf("incident populate failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	id, err := h.svc.Create(r.Context(), &inc, actor(r))
	if err != nil {
		writeIncidentError(w, err)
		return
	}
	inc.ID = id
	writeJSON(w, http.StatusCreated, inc)
}

func (h *IncidentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid incident id")
		return
	}
	existing, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}

	var inc store.Incident
	if !decodeBody(w, r, &inc) {
		return
	}
	inc.ID = id
	// The assigned number is immutable; whatever the payload carries is
	// discarded in favour of the stored value.
	inc.Number = existing.Number
	expected := inc.Version
	if expected <= 0 {
		expected = existing.Version
	}

	if err := h.svc.Populate(r.Context(), &inc); err != nil {
		h.logger.Printf("incident populate failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if err := h.svc.Update(r.Context(), &inc, expected, actor(r)); err != nil {
		writeIncidentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid incident id")
		return
	}
	inc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if inc == nil {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.IncidentFilter{
		Category:       strings.TrimSpace(q.Get("category")),
		Site:           strings.TrimSpace(q.Get("site")),
		NumberContains: strings.TrimSpace(q.Get("number")),
		Search:         strings.TrimSpace(q.Get("q")),
		Limit:          queryInt(q.Get("limit"), 100),
		Offset:         queryInt(q.Get("offset"), 0),
	}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		if t, err := parseDateTime(raw); err == nil {
			filter.From = t
		}
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		if t, err := parseDateTime(raw); err == nil {
			filter.To = t
		}
	}
	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if items == nil {
		items = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Preview runs the derivation pass without persisting, so the form can show
// risk rating, impact description, and cleared sections as the user types.
func (h *IncidentsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var inc store.Incident
	if !decodeBody(w, r, &inc) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Preview(&inc))
}

type allocateNumberRequest struct {
	RecordKey  string `json:"record_key"`
	Category   string `json:"category"`
	OccurredAt string `json:"occurred_at"`
}

// AllocateNumber is the explicit allocator RPC for forms that number before
// first save.
func (h *IncidentsHandler) AllocateNumber(w http.ResponseWriter, r *http.Request) {
	var req allocateNumberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.OccurredAt) == "" {
		writeError(w, http.StatusBadRequest, "category and occurred_at are required")
		return
	}
	occurredAt, err := parseDateTime(req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid occurred_at")
		return
	}
	number, err := h.svc.AllocateNumber(r.Context(), req.RecordKey, req.Category, occurredAt)
	if err != nil {
		var allocErr *numbering.AllocationError
		switch {
		case errors.Is(err, numbering.ErrAllocationInFlight):
			writeError(w, http.StatusConflict, "allocation already in flight")
		case errors.As(err, &allocErr):
			writeError(w, http.StatusServiceUnavailable, "number allocation failed")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"number": number})
}

// AllocateRegisterNumber issues the day-scoped safety register variant.
func (h *IncidentsHandler) AllocateRegisterNumber(w http.ResponseWriter, r *http.Request) {
	var req allocateNumberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OccurredAt) == "" {
		writeError(w, http.StatusBadRequest, "occurred_at is required")
		return
	}
	occurredAt, err := parseDateTime(req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid occurred_at")
		return
	}
	number, err := h.svc.AllocateRegisterNumber(r.Context(), req.RecordKey, occurredAt)
	if err != nil {
		var allocErr *numbering.AllocationError
		switch {
		case errors.Is(err, numbering.ErrAllocationInFlight):
			writeError(w, http.StatusConflict, "allocation already in flight")
		case errors.As(err, &allocErr):
			writeError(w, http.StatusServiceUnavailable, "number allocation failed")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"number": number})
}

// PickerFilter returns the substring pattern a link-field picker applies to
// narrow incident numbers to one category.
func (h *IncidentsHandler) PickerFilter(w http.ResponseWriter, r *http.Request) {
	pattern := incidents.NumberFilter(r.URL.Query().Get("category"))
	writeJSON(w, http.StatusOK, map[string]string{"pattern": pattern})
}

func writeIncidentError(w http.ResponseWriter, err error) {
	var verr *incidents.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "validation failed",
			"violations": verr.Violations,
		})
	case errors.Is(err, incidents.ErrUnissuedNumber):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "version conflict")
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, incidentPayloadMaxBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func actor(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Actor")); v != "" {
		return v
	}
	return "anonymous"
}

func queryInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func parseDateTime(raw string) (time.Time, error) {
	val := strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, val); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, strconv.ErrSyntax
}
