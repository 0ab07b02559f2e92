package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"sentinel-ehs/config"
	"sentinel-ehs/core/incidents"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

func setupIncidentsHandler(t *testing.T) *IncidentsHandler {
	t.Helper()
	cfg := &config.AppConfig{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "test.db")}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, "sqlite", logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	audits := store.NewAuditStore(db)
	svc := incidents.NewService(
		store.NewIncidentsStore(db),
		store.NewEmployeesStore(db),
		store.NewAssetsStore(db),
		audits,
		"",
		logger,
	)
	return NewIncidentsHandler(svc, audits, logger)
}

func postJSON(t *testing.T, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("X-Actor", "safety.officer")
	return req
}

func TestCreateIncidentHandler(t *testing.T) {
	h := setupIncidentsHandler(t)

	rr := httptest.NewRecorder()
	h.Create(rr, postJSON(t, "/api/incidents", map[string]any{
		"category":    "INC",
		"occurred_at": "2025-03-14T09:30:00Z",
		"site":        "North Plant",
		"consequence": 2,
		"likelihood":  2,
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created store.Incident
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Number != "2025-03/IS/INC/00001" {
		t.Fatalf("expected scoped number, got %q", created.Number)
	}
	if created.RiskRating != 5 || created.RiskLevel != "Low" {
		t.Fatalf("expected derived risk 5/Low, got %d/%s", created.RiskRating, created.RiskLevel)
	}
}

func TestCreateIncidentHandlerValidation(t *testing.T) {
	h := setupIncidentsHandler(t)

	rr := httptest.NewRecorder()
	h.Create(rr, postJSON(t, "/api/incidents", map[string]any{
		"category":    "INC",
		"occurred_at": "2025-03-14T09:30:00Z",
		"evidence":    map[string][]string{"storyline": nil, "mini_hira": nil},
	}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var resp struct {
		Violations []string `json:"violations"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Violations) != 2 {
		t.Fatalf("expected both violations reported, got %v", resp.Violations)
	}
}

func TestUpdateIncidentHandlerConflictAndNumberImmutability(t *testing.T) {
	h := setupIncidentsHandler(t)

	rr := httptest.NewRecorder()
	h.Create(rr, postJSON(t, "/api/incidents", map[string]any{
		"category":    "INC",
		"occurred_at": "2025-03-14T09:30:00Z",
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d", rr.Code)
	}
	var created store.Incident
	_ = json.Unmarshal(rr.Body.Bytes(), &created)

	path := "/api/incidents/" + strconv.FormatInt(created.ID, 10)
	updRR := httptest.NewRecorder()
	req := postJSON(t, path, map[string]any{
		"category":    "INS",
		"occurred_at": "2025-06-01T08:00:00Z",
		"number":      "FORGED/IS/INC/99999",
		"version":     created.Version,
	})
	req.Method = "PUT"
	h.Update(updRR, req)
	if updRR.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", updRR.Code, updRR.Body.String())
	}
	var updated store.Incident
	_ = json.Unmarshal(updRR.Body.Bytes(), &updated)
	if updated.Number != created.Number {
		t.Fatalf("number must survive updates, got %q", updated.Number)
	}

	staleRR := httptest.NewRecorder()
	staleReq := postJSON(t, path, map[string]any{"category": "INC", "version": created.Version})
	staleReq.Method = "PUT"
	h.Update(staleRR, staleReq)
	if staleRR.Code != http.StatusConflict {
		t.Fatalf("expected 409 on stale version, got %d", staleRR.Code)
	}
}

func TestAllocateNumberHandler(t *testing.T) {
	h := setupIncidentsHandler(t)

	rr := httptest.NewRecorder()
	h.AllocateNumber(rr, postJSON(t, "/api/incidents/number", map[string]string{
		"record_key":  "form-1",
		"category":    "Incident (INC)",
		"occurred_at": "2025-03-14T09:30:00Z",
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["number"] != "2025-03/IS/INC/00001" {
		t.Fatalf("unexpected number %q", resp["number"])
	}

	missingRR := httptest.NewRecorder()
	h.AllocateNumber(missingRR, postJSON(t, "/api/incidents/number", map[string]string{"category": "INC"}))
	if missingRR.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without occurred_at, got %d", missingRR.Code)
	}
}

func TestCreateIncidentHandlerKeepsAllocatedNumber(t *testing.T) {
	h := setupIncidentsHandler(t)

	allocRR := httptest.NewRecorder()
	h.AllocateNumber(allocRR, postJSON(t, "/api/incidents/number", map[string]string{
		"record_key":  "form-1",
		"category":    "INC",
		"occurred_at": "2025-03-14T09:30:00Z",
	}))
	if allocRR.Code != http.StatusOK {
		t.Fatalf("allocate: %d", allocRR.Code)
	}
	var alloc map[string]string
	_ = json.Unmarshal(allocRR.Body.Bytes(), &alloc)
	if alloc["number"] != "2025-03/IS/INC/00001" {
		t.Fatalf("unexpected allocation %q", alloc["number"])
	}

	createRR := httptest.NewRecorder()
	h.Create(createRR, postJSON(t, "/api/incidents", map[string]any{
		"number":      alloc["number"],
		"category":    "INC",
		"occurred_at": "2025-03-14T09:30:00Z",
	}))
	if createRR.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", createRR.Code, createRR.Body.String())
	}
	var created store.Incident
	_ = json.Unmarshal(createRR.Body.Bytes(), &created)
	if created.Number != alloc["number"] {
		t.Fatalf("expected the allocated number to persist, got %q", created.Number)
	}

	forgedRR := httptest.NewRecorder()
	h.Create(forgedRR, postJSON(t, "/api/incidents", map[string]any{
		"number":      "2025-03/IS/INC/09999",
		"category":    "INC",
		"occurred_at": "2025-03-14T09:30:00Z",
	}))
	if forgedRR.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a number the allocator never issued, got %d", forgedRR.Code)
	}
}

func TestPickerFilterHandler(t *testing.T) {
	h := setupIncidentsHandler(t)

	rr := httptest.NewRecorder()
	h.PickerFilter(rr, httptest.NewRequest("GET", "/api/incidents/picker-filter?category=VFL", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["pattern"] != "%/VFL/%" {
		t.Fatalf("unexpected pattern %q", resp["pattern"])
	}
}
