package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/model"
)

// RequestsHandler handles transfer requests. Users see and create their
// own; managers see all and decide.
type RequestsHandler struct {
	Requests *inventory.Requests
}

// Create handles POST /api/requests. The requester is always the caller.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in inventory.CreateRequestInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	in.UserID = claims.UserID

	req, err := h.Requests.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("request created", "user", claims.Username, "request", req.ID,
		"item_id", req.ItemID, "quantity", req.Quantity,
		"from", req.FromWarehouseID, "to", req.ToWarehouseID)
	jsonResponse(w, http.StatusCreated, req)
}

// List handles GET /api/requests?status=.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.RequestFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := model.ParseRequestStatus(s)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}

	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		filter.UserID = claims.UserID
	}

	reqs, err := h.Requests.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// Get handles GET /api/requests/{id}. Other users' requests look missing
// to plain users.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := h.Requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	if req.UserID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleManager) {
		jsonError(w, http.StatusNotFound, "request not found")
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	claims := GetClaims(r.Context())
	m, err := h.Requests.Approve(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("request approved", "user", claims.Username, "request", id, "movement", m.ID)
	jsonResponse(w, http.StatusOK, m)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	claims := GetClaims(r.Context())
	req, err := h.Requests.Reject(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("request rejected", "user", claims.Username, "request", id)
	jsonResponse(w, http.StatusOK, req)
}
