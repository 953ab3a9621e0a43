package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

// MovementsHandler handles direct transfers and the movement log.
type MovementsHandler struct {
	DB        *sql.DB
	Transfers *inventory.Executor
}

// Transfer handles POST /api/movements/transfer.
func (h *MovementsHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var in inventory.TransferInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	in.UserID = &claims.UserID

	m, err := h.Transfers.Transfer(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("transfer created", "user", claims.Username, "movement", m.ID,
		"item_id", m.ItemID, "quantity", m.Quantity,
		"from", m.FromWarehouseID, "to", m.ToWarehouseID)
	jsonResponse(w, http.StatusCreated, m)
}

// List handles GET /api/movements.
func (h *MovementsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.MovementFilter
	var err error
	if filter.ItemID, err = queryID(r, "item_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.WarehouseID, err = queryID(r, "warehouse_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.list(w, r, filter)
}

// Report handles GET /api/movements/report/{warehouseId}: every movement
// into or out of the warehouse, newest first.
func (h *MovementsHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "warehouseId")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid warehouse id")
		return
	}

	wh, err := store.GetWarehouse(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wh == nil {
		jsonError(w, http.StatusNotFound, "warehouse not found")
		return
	}
	h.list(w, r, model.MovementFilter{WarehouseID: id})
}

func (h *MovementsHandler) list(w http.ResponseWriter, r *http.Request, filter model.MovementFilter) {
	movements, err := store.ListMovements(r.Context(), h.DB, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if movements == nil {
		movements = []model.Movement{}
	}
	jsonResponse(w, http.StatusOK, movements)
}
