package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

// WarehousesHandler handles warehouse endpoints.
type WarehousesHandler struct {
	DB *sql.DB
}

type warehouseRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// List handles GET /api/warehouses.
func (h *WarehousesHandler) List(w http.ResponseWriter, r *http.Request) {
	warehouses, err := store.ListWarehouses(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if warehouses == nil {
		warehouses = []model.Warehouse{}
	}
	jsonResponse(w, http.StatusOK, warehouses)
}

// Create handles POST /api/warehouses.
func (h *WarehousesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	wh, err := store.CreateWarehouse(r.Context(), h.DB, req.Name, req.Address)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("warehouse created", "user", GetClaims(r.Context()).Username, "warehouse", wh.Name, "id", wh.ID)
	jsonResponse(w, http.StatusCreated, wh)
}

// Get handles GET /api/warehouses/{id}.
func (h *WarehousesHandler) Get(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, wh)
}

// Update handles PUT /api/warehouses/{id}.
func (h *WarehousesHandler) Update(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateWarehouse(r.Context(), h.DB, wh.ID, req.Name, req.Address); err != nil {
		writeError(w, r, err)
		return
	}
	wh.Name, wh.Address = req.Name, req.Address

	slog.Info("warehouse updated", "user", GetClaims(r.Context()).Username, "warehouse", wh.Name, "id", wh.ID)
	jsonResponse(w, http.StatusOK, wh)
}

// Delete handles DELETE /api/warehouses/{id}. Warehouses still holding
// stock are refused with 409.
func (h *WarehousesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid warehouse id")
		return
	}

	if err := store.DeleteWarehouse(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("warehouse deleted", "user", GetClaims(r.Context()).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "warehouse deleted"})
}

// Items handles GET /api/warehouses/{id}/items.
func (h *WarehousesHandler) Items(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.lookup(w, r)
	if !ok {
		return
	}

	items, err := store.SearchItems(r.Context(), h.DB, model.ItemFilter{WarehouseID: wh.ID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

func (h *WarehousesHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Warehouse, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid warehouse id")
		return nil, false
	}

	wh, err := store.GetWarehouse(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if wh == nil {
		jsonError(w, http.StatusNotFound, "warehouse not found")
		return nil, false
	}
	return wh, true
}
