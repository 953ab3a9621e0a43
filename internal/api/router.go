package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/skladisca/internal/auth"
	"github.com/erazemk/skladisca/internal/inventory"
	"github.com/erazemk/skladisca/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, svc *inventory.Service, tokens *auth.Tokens) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Tokens: tokens}
	usersHandler := &UsersHandler{DB: db}
	warehousesHandler := &WarehousesHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Ledger: svc.Ledger}
	movementsHandler := &MovementsHandler{DB: db, Transfers: svc.Transfers}
	requestsHandler := &RequestsHandler{Requests: svc.Requests}

	authMW := AuthMiddleware(tokens, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public.
	mux.HandleFunc("GET /healthz", Health(db))
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Warehouses: read (all roles), write (manager+).
	mux.Handle("GET /api/warehouses", authMW(http.HandlerFunc(warehousesHandler.List)))
	mux.Handle("POST /api/warehouses", authMW(requireManager(http.HandlerFunc(warehousesHandler.Create))))
	mux.Handle("GET /api/warehouses/{id}", authMW(http.HandlerFunc(warehousesHandler.Get)))
	mux.Handle("PUT /api/warehouses/{id}", authMW(requireManager(http.HandlerFunc(warehousesHandler.Update))))
	mux.Handle("DELETE /api/warehouses/{id}", authMW(requireManager(http.HandlerFunc(warehousesHandler.Delete))))
	mux.Handle("GET /api/warehouses/{id}/items", authMW(http.HandlerFunc(warehousesHandler.Items)))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Receive))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))
	mux.Handle("GET /api/items/{id}/history", authMW(http.HandlerFunc(itemsHandler.History)))

	// Movements: direct transfers are manager+.
	mux.Handle("POST /api/movements/transfer", authMW(requireManager(http.HandlerFunc(movementsHandler.Transfer))))
	mux.Handle("GET /api/movements", authMW(http.HandlerFunc(movementsHandler.List)))
	mux.Handle("GET /api/movements/report/{warehouseId}", authMW(http.HandlerFunc(movementsHandler.Report)))

	// Requests: anyone may ask, managers decide.
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("POST /api/requests/{id}/approve", authMW(requireManager(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("POST /api/requests/{id}/reject", authMW(requireManager(http.HandlerFunc(requestsHandler.Reject))))

	return RequestID(LoggingMiddleware(mux))
}
