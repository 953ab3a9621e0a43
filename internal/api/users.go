package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/skladisca/internal/model"
	"github.com/erazemk/skladisca/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	WarehouseID *int64 `json:"warehouse_id"`
}

type updateUserRequest struct {
	Role        string `json:"role"`
	WarehouseID *int64 `json:"warehouse_id"`
}

var errUsernameTaken = errors.New("username already exists")

// createAccount validates and stores a new user with an optional home
// warehouse in one transaction.
func createAccount(ctx context.Context, db *sql.DB, username, password, role string, warehouseID *int64) (*model.User, error) {
	if err := model.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := store.GetUserByUsername(ctx, tx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errUsernameTaken
	}

	if warehouseID != nil {
		if err := checkWarehouse(ctx, tx, *warehouseID); err != nil {
			return nil, err
		}
	}

	user, err := store.CreateUser(ctx, tx, username, string(hash), role)
	if err != nil {
		return nil, err
	}
	if warehouseID != nil {
		if err := store.SetUserWarehouse(ctx, tx, user.ID, warehouseID); err != nil {
			return nil, err
		}
		user.WarehouseID = warehouseID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user: %w", err)
	}
	return user, nil
}

// checkWarehouse reports an unknown home warehouse as invalid input.
func checkWarehouse(ctx context.Context, q store.Querier, id int64) error {
	wh, err := store.GetWarehouse(ctx, q, id)
	if err != nil {
		return err
	}
	if wh == nil {
		return fmt.Errorf("%w: unknown warehouse %d", model.ErrInvalidInput, id)
	}
	return nil
}

// writeAccountError answers a failed createAccount.
func writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errUsernameTaken) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	writeError(w, r, err)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "username, password, and role required")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	user, err := createAccount(r.Context(), h.DB, req.Username, req.Password, req.Role, req.WarehouseID)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	slog.Info("user created", "user", GetClaims(r.Context()).Username, "new_user", req.Username, "role", req.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if req.WarehouseID != nil {
		if err := checkWarehouse(r.Context(), h.DB, *req.WarehouseID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := store.UpdateUser(r.Context(), h.DB, user.ID, req.Role); err != nil {
		writeError(w, r, err)
		return
	}
	user.Role = req.Role
	if req.WarehouseID != nil {
		if err := store.SetUserWarehouse(r.Context(), h.DB, user.ID, req.WarehouseID); err != nil {
			writeError(w, r, err)
			return
		}
		user.WarehouseID = req.WarehouseID
	}

	slog.Info("user role updated", "user", GetClaims(r.Context()).Username, "target_user", user.Username, "new_role", req.Role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, string(hash)); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user password reset", "user", GetClaims(r.Context()).Username, "target_user", user.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == user.ID {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, user.ID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", user.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// lookup loads the active user named by the id path value, writing the
// error response itself when there is none.
func (h *UsersHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return nil, false
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}
