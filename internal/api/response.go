package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/skladisca/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the named path value as a record ID.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// queryID parses an optional numeric query parameter. Missing means zero.
func queryID(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// writeError maps an inventory error to a response. Client errors carry
// their message; server errors are logged and answered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var incomplete *model.IncompleteTransferError
	switch {
	case errors.As(err, &incomplete):
		slog.Error("transfer needs reconciliation",
			"request_id", RequestIDFrom(r.Context()),
			"item", incomplete.ItemID, "quantity", incomplete.Quantity,
			"from", incomplete.FromWarehouseID, "to", incomplete.ToWarehouseID,
			"stage", incomplete.Stage, "error", incomplete.Err)
		jsonError(w, http.StatusInternalServerError, "transfer applied but incomplete, stock records need reconciliation")
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInsufficientStock),
		errors.Is(err, model.ErrInvalidQuantity),
		errors.Is(err, model.ErrSameWarehouse),
		errors.Is(err, model.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrRequestClosed),
		errors.Is(err, model.ErrWarehouseNotEmpty):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "request_id", RequestIDFrom(r.Context()),
			"method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
