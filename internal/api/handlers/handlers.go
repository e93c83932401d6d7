package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/api/middleware"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/dashboard"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/export"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/inventory"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/loads"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/prefs"
	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/source"
)

// InventoryHandler handles inventory dashboard endpoints.
type InventoryHandler struct {
	store       *dashboard.Store
	loads       *loads.Store
	source      source.Source
	costCenters inventory.CostCenterMap
	prefs       *prefs.Store
	log         zerolog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(store *dashboard.Store, loadStore *loads.Store, src source.Source, costCenters inventory.CostCenterMap, prefStore *prefs.Store, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		store:       store,
		loads:       loadStore,
		source:      src,
		costCenters: costCenters,
		prefs:       prefStore,
		log:         log,
	}
}

// Routes registers all inventory routes on the router.
func (h *InventoryHandler) Routes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/load", h.TriggerLoad).Methods(http.MethodPost)
	api.HandleFunc("/loads", h.ListLoads).Methods(http.MethodGet)
	api.HandleFunc("/loads/{id}", h.GetLoad).Methods(http.MethodGet)
	api.HandleFunc("/inventory", h.GetInventory).Methods(http.MethodGet)
	api.HandleFunc("/inventory/view", h.UpdateView).Methods(http.MethodPut)
	api.HandleFunc("/inventory/page", h.Page).Methods(http.MethodPost)
	api.HandleFunc("/materials/{id}", h.Material).Methods(http.MethodGet)
	api.HandleFunc("/materials/{id}/range", h.Range).Methods(http.MethodGet)
	api.HandleFunc("/export/inventory", h.ExportInventory).Methods(http.MethodGet)
	api.HandleFunc("/export/materials/{id}/{direction}", h.ExportTransactions).Methods(http.MethodGet)
	api.HandleFunc("/prefs/theme", h.GetTheme).Methods(http.MethodGet)
	api.HandleFunc("/prefs/theme", h.SetTheme).Methods(http.MethodPut)
}

// Health handles GET /health
func (h *InventoryHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// TriggerLoad handles POST /api/load
//
// The load runs in the background; the response carries the load record
// so the caller can poll GET /api/loads/{id}.
func (h *InventoryHandler) TriggerLoad(w http.ResponseWriter, r *http.Request) {
	rec := h.loads.Begin(r.Context(), h.source.Name())

	go h.runLoad(context.Background(), rec.ID)

	middleware.WriteJSON(w, http.StatusAccepted, rec)
}

// Refresh fetches and aggregates the source synchronously. It is used by
// the scheduled refresh job.
func (h *InventoryHandler) Refresh(ctx context.Context) error {
	rec := h.loads.Begin(ctx, h.source.Name())
	return h.runLoad(ctx, rec.ID)
}

func (h *InventoryHandler) runLoad(ctx context.Context, loadID string) error {
	table, err := h.source.Fetch(ctx)
	if err != nil {
		h.log.Error().Err(err).Str("load_id", loadID).Msg("Failed to fetch source")
		h.loads.Fail(ctx, loadID, err)
		return err
	}

	summaries, err := inventory.Aggregate(table, h.costCenters)
	if err != nil {
		// A schema error keeps the previously loaded data in place.
		h.log.Error().Err(err).Str("load_id", loadID).Msg("Failed to aggregate inventory")
		h.loads.Fail(ctx, loadID, err)
		return err
	}

	h.store.Replace(summaries)
	h.loads.Finish(ctx, loadID, len(table.Rows), len(summaries))

	h.log.Info().
		Str("load_id", loadID).
		Int("rows", len(table.Rows)).
		Int("materials", len(summaries)).
		Msg("Inventory load complete")
	return nil
}

// ListLoads handles GET /api/loads
func (h *InventoryHandler) ListLoads(w http.ResponseWriter, r *http.Request) {
	records := h.loads.List(r.Context(), 50)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"loads": records,
		"count": len(records),
	})
}

// GetLoad handles GET /api/loads/{id}
func (h *InventoryHandler) GetLoad(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.loads.Get(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Load not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rec)
}

// GetInventory handles GET /api/inventory
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.store.Snapshot())
}

// UpdateView handles PUT /api/inventory/view
func (h *InventoryHandler) UpdateView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Search            *string  `json:"search"`
		Movement          *string  `json:"movement"`
		LowStockOnly      *bool    `json:"lowStockOnly"`
		LowStockThreshold *float64 `json:"lowStockThreshold"`
		SortColumn        *string  `json:"sortColumn"`
		SortDirection     *string  `json:"sortDirection"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := dashboard.ViewUpdate{
		Search:            req.Search,
		LowStockOnly:      req.LowStockOnly,
		LowStockThreshold: req.LowStockThreshold,
	}

	if req.Movement != nil {
		switch *req.Movement {
		case dashboard.MovementAll, inventory.MovementInbound, inventory.MovementOutbound:
		default:
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid movement filter: %s", *req.Movement))
			return
		}
		update.Movement = req.Movement
	}

	if req.SortColumn != nil {
		col := dashboard.SortColumn(*req.SortColumn)
		if col != dashboard.SortByDescription && col != dashboard.SortByBalance {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid sort column: %s", *req.SortColumn))
			return
		}
		update.SortColumn = &col
	}

	if req.SortDirection != nil {
		dir := dashboard.SortDirection(*req.SortDirection)
		if dir != dashboard.SortAsc && dir != dashboard.SortDesc {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid sort direction: %s", *req.SortDirection))
			return
		}
		update.SortDirection = &dir
	}

	middleware.WriteJSON(w, http.StatusOK, h.store.UpdateView(update))
}

// Page handles POST /api/inventory/page
func (h *InventoryHandler) Page(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page   *int   `json:"page"`
		Action string `json:"action"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ok bool
	switch {
	case req.Page != nil:
		ok = h.store.GoToPage(*req.Page)
	case req.Action == "next":
		ok = h.store.NextPage()
	case req.Action == "prev":
		ok = h.store.PrevPage()
	default:
		middleware.WriteError(w, http.StatusBadRequest, "Either page or action is required")
		return
	}

	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Page out of range")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.store.Snapshot())
}

// Material handles GET /api/materials/{id}
func (h *InventoryHandler) Material(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()

	filters := dashboard.MaterialFilters{
		Direction:  q.Get("direction"),
		Date:       q.Get("date"),
		User:       q.Get("user"),
		CostCenter: q.Get("costCenter"),
		Query:      q.Get("q"),
	}

	sum, ok := h.store.Material(id)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Material not found")
		return
	}

	txs, _ := h.store.MaterialView(id, filters)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"material":     sum,
		"transactions": txs,
		"count":        len(txs),
	})
}

// Range handles GET /api/materials/{id}/range
func (h *InventoryHandler) Range(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()

	dir := dashboard.Direction(q.Get("direction"))
	if dir != dashboard.DirectionIn && dir != dashboard.DirectionOut {
		middleware.WriteError(w, http.StatusBadRequest, "Direction must be in or out")
		return
	}

	from, err := parseDateParam(q.Get("from"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
		return
	}

	to, err := parseDateParam(q.Get("to"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
		return
	}

	view, ok := h.store.RangeView(id, dir, from, to)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Material not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, view)
}

// ExportInventory handles GET /api/export/inventory
func (h *InventoryHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	doc, ok := export.Inventory(h.store.Filtered(), time.Now())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeCSV(w, doc)
}

// ExportTransactions handles GET /api/export/materials/{id}/{direction}
func (h *InventoryHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	dir := dashboard.Direction(vars["direction"])
	if dir != dashboard.DirectionIn && dir != dashboard.DirectionOut {
		middleware.WriteError(w, http.StatusBadRequest, "Direction must be in or out")
		return
	}

	sum, ok := h.store.Material(id)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Material not found")
		return
	}

	txs := sum.InTransactions
	if dir == dashboard.DirectionOut {
		txs = sum.OutTransactions
	}

	doc, ok := export.Transactions(id, dir, txs)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeCSV(w, doc)
}

// GetTheme handles GET /api/prefs/theme
func (h *InventoryHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"theme": h.prefs.Theme()})
}

// SetTheme handles PUT /api/prefs/theme
func (h *InventoryHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.prefs.SetTheme(req.Theme); err != nil {
		if errors.Is(err, prefs.ErrInvalidTheme) {
			middleware.WriteError(w, http.StatusBadRequest, "Theme must be light or dark")
			return
		}
		h.log.Error().Err(err).Msg("Failed to save theme preference")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save theme")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

func writeCSV(w http.ResponseWriter, doc *export.Document) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc.Content))
}

func parseDateParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}
