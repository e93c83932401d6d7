package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/dashboard"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/inventory"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/loads"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/prefs"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/source"
)

// stubSource implements source.Source for testing.
type stubSource struct {
	fetchFunc func(ctx context.Context) (*source.RawTable, error)
}

func (s *stubSource) Fetch(ctx context.Context) (*source.RawTable, error) {
	return s.fetchFunc(ctx)
}

func (s *stubSource) Name() string { return "stub" }

var _ source.Source = (*stubSource)(nil)

func testTable() *source.RawTable {
	return &source.RawTable{
		Headers: []string{"Material", "Material Description", "Quantity", "Unit of Entry", "Movement Type", "Posting Date", "Material Document"},
		Rows: [][]any{
			{"M1", "Bolt", 10.0, "EA", "101", "2024-03-01", "DOC-1"},
			{"M1", "Bolt", 4.0, "EA", "201", "2024-03-02", "DOC-2"},
			{"M2", "Washer", 5.0, "EA", "101", "2024-03-03", "DOC-3"},
		},
	}
}

func newTestHandler(t *testing.T, src source.Source) (*InventoryHandler, *mux.Router) {
	t.Helper()

	store := dashboard.NewStore(zerolog.Nop(), dashboard.DefaultLowStockThreshold)
	loadStore := loads.NewStore()
	prefStore := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.json"))

	h := NewInventoryHandler(store, loadStore, src, inventory.CostCenterMap{}, prefStore, zerolog.Nop())

	router := mux.NewRouter()
	h.Routes(router)
	return h, router
}

func loadedHandler(t *testing.T) (*InventoryHandler, *mux.Router) {
	t.Helper()

	src := &stubSource{
		fetchFunc: func(ctx context.Context) (*source.RawTable, error) {
			return testTable(), nil
		},
	}
	h, router := newTestHandler(t, src)
	if err := h.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return h, router
}

func TestRefreshLoadsInventory(t *testing.T) {
	_, router := loadedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var snap dashboard.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if snap.TotalItems != 2 {
		t.Errorf("Expected 2 materials, got %d", snap.TotalItems)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("Expected 2 items on page, got %d", len(snap.Items))
	}
	if snap.Items[0].Material != "M1" || snap.Items[0].Balance != 6 {
		t.Errorf("Unexpected first item: %+v", snap.Items[0])
	}
}

func TestRefreshFetchErrorKeepsPreviousData(t *testing.T) {
	failing := false
	src := &stubSource{
		fetchFunc: func(ctx context.Context) (*source.RawTable, error) {
			if failing {
				return nil, &source.FetchError{Source: "stub", Err: errors.New("connection refused")}
			}
			return testTable(), nil
		},
	}
	h, _ := newTestHandler(t, src)

	if err := h.Refresh(context.Background()); err != nil {
		t.Fatalf("First refresh failed: %v", err)
	}

	failing = true
	if err := h.Refresh(context.Background()); err == nil {
		t.Fatal("Expected error from failing source")
	}

	// The dashboard still serves the previously loaded materials.
	if snap := h.store.Snapshot(); snap.TotalItems != 2 {
		t.Errorf("Expected previous data to survive, got %d items", snap.TotalItems)
	}

	records := h.loads.List(context.Background(), 0)
	if len(records) != 2 {
		t.Fatalf("Expected 2 load records, got %d", len(records))
	}
	if records[0].Status != loads.StatusFailed {
		t.Errorf("Expected newest load failed, got %s", records[0].Status)
	}
	if records[1].Status != loads.StatusSucceeded {
		t.Errorf("Expected first load succeeded, got %s", records[1].Status)
	}
}

func TestTriggerLoadReturnsAccepted(t *testing.T) {
	done := make(chan struct{})
	src := &stubSource{
		fetchFunc: func(ctx context.Context) (*source.RawTable, error) {
			defer close(done)
			return testTable(), nil
		},
	}
	_, router := newTestHandler(t, src)

	req := httptest.NewRequest(http.MethodPost, "/api/load", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}

	var rec loads.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if rec.ID == "" || rec.Status != loads.StatusRunning {
		t.Errorf("Unexpected load record: %+v", rec)
	}

	<-done
}

func TestUpdateViewValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid movement", `{"movement":"101"}`, http.StatusOK},
		{"movement all", `{"movement":"all"}`, http.StatusOK},
		{"invalid movement", `{"movement":"999"}`, http.StatusBadRequest},
		{"valid sort", `{"sortColumn":"balance","sortDirection":"desc"}`, http.StatusOK},
		{"invalid sort column", `{"sortColumn":"price"}`, http.StatusBadRequest},
		{"invalid sort direction", `{"sortDirection":"sideways"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := loadedHandler(t)

			req := httptest.NewRequest(http.MethodPut, "/api/inventory/view", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestPageOutOfRange(t *testing.T) {
	_, router := loadedHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/page", strings.NewReader(`{"page":5}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

func TestPageActions(t *testing.T) {
	_, router := loadedHandler(t)

	// Single page of data, next must be rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/inventory/page", strings.NewReader(`{"action":"next"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for next on last page, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/inventory/page", strings.NewReader(`{"page":1}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for page 1, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/inventory/page", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty request, got %d", w.Code)
	}
}

func TestMaterialDetail(t *testing.T) {
	_, router := loadedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/materials/M1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Material     *inventory.MaterialSummary    `json:"material"`
		Transactions []dashboard.TaggedTransaction `json:"transactions"`
		Count        int                           `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Material.Material != "M1" {
		t.Errorf("Expected material M1, got %s", resp.Material.Material)
	}
	if resp.Count != 2 {
		t.Errorf("Expected 2 transactions, got %d", resp.Count)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/materials/NOPE", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown material, got %d", w.Code)
	}
}

func TestRangeValidation(t *testing.T) {
	_, router := loadedHandler(t)

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"valid", "/api/materials/M1/range?direction=in&from=2024-03-01&to=2024-03-31", http.StatusOK},
		{"missing direction", "/api/materials/M1/range", http.StatusBadRequest},
		{"bad from", "/api/materials/M1/range?direction=in&from=03-01-2024", http.StatusBadRequest},
		{"unknown material", "/api/materials/NOPE/range?direction=in", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestExportInventory(t *testing.T) {
	_, router := loadedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export/inventory", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "inventory_export_") {
		t.Errorf("Unexpected Content-Disposition: %s", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "Material,MaterialDescription,") {
		t.Errorf("Unexpected CSV body: %s", w.Body.String())
	}
}

func TestExportInventoryEmpty(t *testing.T) {
	src := &stubSource{
		fetchFunc: func(ctx context.Context) (*source.RawTable, error) {
			return testTable(), nil
		},
	}
	_, router := newTestHandler(t, src)

	req := httptest.NewRequest(http.MethodGet, "/api/export/inventory", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204 for empty inventory, got %d", w.Code)
	}
}

func TestExportTransactions(t *testing.T) {
	_, router := loadedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export/materials/M1/out", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	// Outbound quantities are exported negated.
	if !strings.Contains(w.Body.String(), "-4") {
		t.Errorf("Expected negated outbound quantity in body: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/export/materials/M1/sideways", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad direction, got %d", w.Code)
	}
}

func TestThemeEndpoints(t *testing.T) {
	_, router := loadedHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/prefs/theme", strings.NewReader(`{"theme":"dark"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/prefs/theme", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["theme"] != "dark" {
		t.Errorf("Expected dark, got %s", resp["theme"])
	}

	req = httptest.NewRequest(http.MethodPut, "/api/prefs/theme", strings.NewReader(`{"theme":"sepia"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown theme, got %d", w.Code)
	}
}

func TestLoadRecords(t *testing.T) {
	h, router := loadedHandler(t)

	records := h.loads.List(context.Background(), 0)
	if len(records) != 1 {
		t.Fatalf("Expected 1 load record, got %d", len(records))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/loads/"+records[0].ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/loads/nope", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/loads", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	_, router := loadedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}
