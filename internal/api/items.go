package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/erazemk/skladisca/internal/imaging"
	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

// ItemsHandler handles item endpoints. Quantities only change through the
// ledger; the remaining fields are edited directly.
type ItemsHandler struct {
	DB     *sql.DB
	Ledger *inventory.Ledger
}

type updateItemRequest struct {
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := queryID(r, "warehouse_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	items, err := store.SearchItems(r.Context(), h.DB, model.ItemFilter{
		Name:        q.Get("name"),
		Category:    q.Get("category"),
		WarehouseID: warehouseID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Receive handles POST /api/items. Stock is added to the warehouse's row
// for the name, which is created from the request fields if missing.
func (h *ItemsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var in inventory.ReceiveInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.Receive(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("stock received", "user", GetClaims(r.Context()).Username,
		"item", item.Name, "item_id", item.ID, "warehouse_id", in.WarehouseID,
		"quantity", in.Quantity, "on_hand", item.Quantity)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price.IsNegative() {
		jsonError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, item.ID, req.Description, req.Price, req.Category); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item updated", "user", GetClaims(r.Context()).Username, "item", item.Name, "item_id", item.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item deleted", "user", GetClaims(r.Context()).Username,
		"item", item.Name, "item_id", item.ID, "quantity", item.Quantity)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image (multipart field "image").
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	img, err := imaging.Normalize(file)
	if errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, img.Data, img.MIME); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item image uploaded", "user", GetClaims(r.Context()).Username,
		"item_id", item.ID, "mime", img.MIME, "width", img.Width, "height", img.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// History handles GET /api/items/{id}/history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	movements, err := store.ListItemHistory(r.Context(), h.DB, item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if movements == nil {
		movements = []model.Movement{}
	}
	jsonResponse(w, http.StatusOK, movements)
}

func (h *ItemsHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}
